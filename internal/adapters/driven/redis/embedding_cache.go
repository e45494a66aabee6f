package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

const embeddingKeyPrefix = "quarry:embedding:"

// EmbeddingCache caches query embeddings in Redis.
// Keys are derived from the model name and a SHA-256 of the text so
// arbitrarily long queries produce bounded key sizes.
type EmbeddingCache struct {
	client *redis.Client
}

// NewEmbeddingCache creates a Redis-backed embedding cache.
func NewEmbeddingCache(client *redis.Client) *EmbeddingCache {
	return &EmbeddingCache{client: client}
}

// cacheKey builds the Redis key for a model/text pair.
func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return embeddingKeyPrefix + model + ":" + hex.EncodeToString(sum[:])
}

// Get retrieves a cached embedding. Returns nil, nil on cache miss.
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, error) {
	data, err := c.client.Get(ctx, cacheKey(model, text)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached embedding: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, fmt.Errorf("unmarshal cached embedding: %w", err)
	}
	return embedding, nil
}

// Set stores an embedding with the given TTL.
func (c *EmbeddingCache) Set(ctx context.Context, model, text string, embedding []float32, ttl time.Duration) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(model, text), data, ttl).Err(); err != nil {
		return fmt.Errorf("set cached embedding: %w", err)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (c *EmbeddingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close cleans up resources.
func (c *EmbeddingCache) Close() error {
	// Redis client is shared, don't close it here
	return nil
}
