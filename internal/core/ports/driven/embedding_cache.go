package driven

import (
	"context"
	"time"
)

// EmbeddingCache caches query embeddings keyed by model and text.
// This avoids re-embedding repeated questions. Implementations can use
// Redis or fall back to a no-op when no cache backend is configured.
type EmbeddingCache interface {
	// Get retrieves a cached embedding. Returns nil, nil on cache miss.
	Get(ctx context.Context, model, text string) ([]float32, error)

	// Set stores an embedding with the given TTL.
	Set(ctx context.Context, model, text string, embedding []float32, ttl time.Duration) error

	// Ping checks if the cache backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}
