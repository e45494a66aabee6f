package domain

import "time"

// Document represents an ingested document
type Document struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Source    string            `json:"source"` // Filename, URL, or caller-supplied identifier
	MimeType  string            `json:"mime_type"`
	Length    int               `json:"length"` // Character length of the normalised text
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	IndexedAt time.Time         `json:"indexed_at"`
}

// Chunk is the unit of embedding and retrieval: a contiguous span of a
// document's text. Chunks are created at indexing time and immutable after.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Position   int       `json:"position"`   // Chunk index within the document (0-based)
	StartChar  int       `json:"start_char"` // Character offset into the source text
	EndChar    int       `json:"end_char"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentContent holds the full content of a document
type DocumentContent struct {
	DocumentID string            `json:"document_id"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Metadata   map[string]string `json:"metadata"`
}

// DocumentWithChunks combines a document with its chunks
type DocumentWithChunks struct {
	Document *Document `json:"document"`
	Chunks   []*Chunk  `json:"chunks"`
}

// IngestResult summarises one pass of the indexing pipeline
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
	ChunksIndexed int    `json:"chunks_indexed"`
	DurationMs    int64  `json:"duration_ms"`
}
