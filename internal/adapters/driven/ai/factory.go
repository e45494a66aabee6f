// Package ai provides embedding and generation service adapters for the
// supported AI providers. Services are created through the Factory so they
// can be hot-swapped at runtime when settings change.
package ai

import (
	"fmt"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// Ensure Factory implements AIFactory
var _ driven.AIFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings.
// Returns nil, nil when the settings are not configured so callers can
// clear the running service.
func (f *Factory) CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	case domain.AIProviderOllama:
		return NewOllamaEmbedding(settings.BaseURL, settings.Model)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateGenerationService creates a generation service from settings.
// Returns nil, nil when the settings are not configured.
func (f *Factory) CreateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIGeneration(settings.APIKey, settings.Model, settings.BaseURL, settings.Temperature, settings.MaxTokens)
	case domain.AIProviderOllama:
		return NewOllamaGeneration(settings.BaseURL, settings.Model, settings.Temperature, settings.MaxTokens)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
