package driving

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// IngestRequest describes a document to index
type IngestRequest struct {
	Title    string            `json:"title"`
	Source   string            `json:"source,omitempty"`
	MimeType string            `json:"mime_type,omitempty"` // Defaults to text/plain
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// Chunking overrides; zero means pipeline defaults
	ChunkSize    int `json:"chunk_size,omitempty"`
	ChunkOverlap int `json:"chunk_overlap,omitempty"`
}

// IngestService handles the indexing pipeline:
// normalise -> chunk -> embed -> store -> index
type IngestService interface {
	// Index runs the full pipeline synchronously and returns the result.
	// Each call creates a new document, even for identical content.
	Index(ctx context.Context, req IngestRequest) (*domain.IngestResult, error)

	// IndexAsync persists the document and enqueues an indexing task.
	// Returns the created task for status polling.
	IndexAsync(ctx context.Context, req IngestRequest) (*domain.Task, error)

	// Reindex re-runs chunking and embedding for an existing document.
	Reindex(ctx context.Context, documentID string) (*domain.IngestResult, error)
}
