package redis

import (
	"context"
	"testing"
	"time"
)

func TestEmbeddingCache_GetMiss(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewEmbeddingCache(client)
	ctx := context.Background()

	embedding, err := cache.Get(ctx, "test-model", "never stored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedding != nil {
		t.Errorf("expected nil on cache miss, got %v", embedding)
	}
}

func TestEmbeddingCache_SetAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewEmbeddingCache(client)
	ctx := context.Background()

	stored := []float32{0.1, 0.2, 0.3, 0.4}
	if err := cache.Set(ctx, "test-model", "what is quarry?", stored, time.Minute); err != nil {
		t.Fatalf("unexpected error on set: %v", err)
	}

	got, err := cache.Get(ctx, "test-model", "what is quarry?")
	if err != nil {
		t.Fatalf("unexpected error on get: %v", err)
	}
	if len(got) != len(stored) {
		t.Fatalf("expected %d dimensions, got %d", len(stored), len(got))
	}
	for i := range stored {
		if got[i] != stored[i] {
			t.Errorf("dimension %d: expected %f, got %f", i, stored[i], got[i])
		}
	}
}

func TestEmbeddingCache_KeyedByModel(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewEmbeddingCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "model-a", "same text", []float32{1}, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.Get(ctx, "model-b", "same text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected miss for different model")
	}
}

func TestEmbeddingCache_Ping(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewEmbeddingCache(client)
	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
