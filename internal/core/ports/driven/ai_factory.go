package driven

import "github.com/helix-labs/quarry-core/internal/core/domain"

// AIFactory creates AI service instances from settings.
// This enables hot-swapping providers when settings change at runtime.
type AIFactory interface {
	// CreateEmbeddingService creates an embedding service for the given settings.
	// Returns domain.ErrInvalidProvider for unknown providers.
	CreateEmbeddingService(settings domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateGenerationService creates a generation service for the given settings.
	// Returns domain.ErrInvalidProvider for unknown providers.
	CreateGenerationService(settings domain.GenerationSettings) (GenerationService, error)
}
