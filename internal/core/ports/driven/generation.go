package driven

import (
	"context"
)

// GenerationService produces text completions from a language model
type GenerationService interface {
	// Complete sends a fully assembled prompt and returns the generated text.
	// The prompt already contains all retrieved context; no conversation
	// state is kept between calls.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
