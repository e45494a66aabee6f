package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// MockVectorIndex is a mock implementation of VectorIndex for testing.
// It performs real cosine similarity over stored embeddings so retrieval
// ordering in tests matches production behaviour.
type MockVectorIndex struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk
	byDoc  map[string][]*domain.Chunk
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		chunks: make(map[string]*domain.Chunk),
		byDoc:  make(map[string][]*domain.Chunk),
	}
}

func (m *MockVectorIndex) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		m.chunks[chunk.ID] = chunk
		m.byDoc[chunk.DocumentID] = append(m.byDoc[chunk.DocumentID], chunk)
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, embedding []float32, k int) ([]*domain.RetrievedChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*domain.RetrievedChunk
	for _, chunk := range m.chunks {
		results = append(results, &domain.RetrievedChunk{
			Chunk: chunk,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (m *MockVectorIndex) Delete(ctx context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range chunkIDs {
		delete(m.chunks, id)
	}
	return nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range m.byDoc[documentID] {
		delete(m.chunks, chunk.ID)
	}
	delete(m.byDoc, documentID)
	return nil
}

func (m *MockVectorIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Helper methods for testing

func (m *MockVectorIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = make(map[string]*domain.Chunk)
	m.byDoc = make(map[string][]*domain.Chunk)
}
