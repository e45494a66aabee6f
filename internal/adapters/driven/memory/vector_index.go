// Package memory provides in-memory driven adapters. The vector index here
// is a brute-force cosine index suitable for development and small corpora;
// production deployments use the pgvector-backed index instead.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory vector index using exact brute-force
// cosine similarity. Safe for concurrent use.
type VectorIndex struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		chunks: make(map[string]*domain.Chunk),
	}
}

// Insert adds or replaces chunks in the index. Chunks without an
// embedding are skipped; they cannot participate in similarity search.
func (idx *VectorIndex) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, chunk := range chunks {
		if chunk == nil || len(chunk.Embedding) == 0 {
			continue
		}
		idx.chunks[chunk.ID] = chunk
	}
	return nil
}

// Search scans every stored embedding and returns the k most similar
// chunks by descending cosine similarity.
func (idx *VectorIndex) Search(ctx context.Context, embedding []float32, k int) ([]*domain.RetrievedChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]*domain.RetrievedChunk, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		results = append(results, &domain.RetrievedChunk{
			Chunk: chunk,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		// Stable order for equal scores
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Delete removes chunks by IDs. Unknown IDs are ignored.
func (idx *VectorIndex) Delete(ctx context.Context, chunkIDs []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, id := range chunkIDs {
		delete(idx.chunks, id)
	}
	return nil
}

// DeleteByDocument removes all chunks belonging to a document.
func (idx *VectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, chunk := range idx.chunks {
		if chunk.DocumentID == documentID {
			delete(idx.chunks, id)
		}
	}
	return nil
}

// Count returns the number of indexed chunks.
func (idx *VectorIndex) Count(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks), nil
}

// HealthCheck always succeeds for the in-memory index.
func (idx *VectorIndex) HealthCheck(ctx context.Context) error {
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
