package driven

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List retrieves documents with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Delete deletes a document
	Delete(ctx context.Context, id string) error

	// Count returns total document count
	Count(ctx context.Context) (int, error)
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// Save creates or updates a chunk
	Save(ctx context.Context, chunk *domain.Chunk) error

	// SaveBatch saves multiple chunks in a transaction
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// Get retrieves a chunk by ID
	Get(ctx context.Context, id string) (*domain.Chunk, error)

	// GetByDocument retrieves all chunks for a document, ordered by position
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// Delete deletes a chunk
	Delete(ctx context.Context, id string) error

	// DeleteByDocument deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
