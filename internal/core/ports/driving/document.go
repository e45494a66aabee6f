package driving

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// DocumentService provides read access to indexed documents
type DocumentService interface {
	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetWithChunks retrieves a document with its chunks
	GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error)

	// GetContent retrieves the full content of a document
	GetContent(ctx context.Context, id string) (*domain.DocumentContent, error)

	// List retrieves documents with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)

	// Delete removes a document, its chunks, and its index entries
	Delete(ctx context.Context, id string) error
}
