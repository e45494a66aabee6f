package mocks

import (
	"context"
	"sync"
	"time"
)

// MockEmbeddingCache is a mock implementation of EmbeddingCache for testing
type MockEmbeddingCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
	hits    int
	misses  int
}

// NewMockEmbeddingCache creates a new MockEmbeddingCache
func NewMockEmbeddingCache() *MockEmbeddingCache {
	return &MockEmbeddingCache{
		entries: make(map[string][]float32),
	}
}

func (m *MockEmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	embedding, ok := m.entries[model+":"+text]
	if !ok {
		m.misses++
		return nil, nil
	}
	m.hits++
	return embedding, nil
}

func (m *MockEmbeddingCache) Set(ctx context.Context, model, text string, embedding []float32, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[model+":"+text] = embedding
	return nil
}

func (m *MockEmbeddingCache) Ping(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingCache) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockEmbeddingCache) Hits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits
}

func (m *MockEmbeddingCache) Misses() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.misses
}
