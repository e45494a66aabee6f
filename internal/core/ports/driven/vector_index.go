package driven

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// VectorIndex handles vector storage and k-nearest-neighbour retrieval.
// Implementations can use pgvector (persistent) or an in-memory index.
type VectorIndex interface {
	// Insert adds chunks (with embeddings) to the index
	Insert(ctx context.Context, chunks []*domain.Chunk) error

	// Search finds the k chunks most similar to the query embedding,
	// ordered by descending similarity. Returns fewer than k results
	// when the index holds fewer than k chunks.
	Search(ctx context.Context, embedding []float32, k int) ([]*domain.RetrievedChunk, error)

	// Delete removes chunks by IDs
	Delete(ctx context.Context, chunkIDs []string) error

	// DeleteByDocument removes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the number of chunks currently indexed
	Count(ctx context.Context) (int, error)

	// HealthCheck verifies the index backend is available
	HealthCheck(ctx context.Context) error
}
