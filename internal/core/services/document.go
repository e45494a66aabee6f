package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	vectorIndex   driven.VectorIndex
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	vectorIndex driven.VectorIndex,
	logger *slog.Logger,
) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: documentStore,
		chunkStore:    chunkStore,
		vectorIndex:   vectorIndex,
		logger:        logger,
	}
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// GetWithChunks retrieves a document with its chunks
func (s *documentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentWithChunks{
		Document: doc,
		Chunks:   chunks,
	}, nil
}

// GetContent retrieves the full content of a document.
// Chunks overlap, so reconstruction skips the shared prefix of each
// chunk using the stored character spans.
func (s *documentService) GetContent(ctx context.Context, id string) (*domain.DocumentContent, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	var body strings.Builder
	covered := 0
	for _, chunk := range chunks {
		if chunk.EndChar <= covered {
			continue
		}
		runes := []rune(chunk.Content)
		skip := covered - chunk.StartChar
		if skip < 0 || skip > len(runes) {
			skip = 0
		}
		body.WriteString(string(runes[skip:]))
		covered = chunk.EndChar
	}

	return &domain.DocumentContent{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Body:       body.String(),
		Metadata:   doc.Metadata,
	}, nil
}

// List retrieves documents with pagination
func (s *documentService) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.documentStore.List(ctx, limit, offset)
}

// Count returns the total number of documents
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documentStore.Count(ctx)
}

// Delete removes a document, its chunks, and its index entries
func (s *documentService) Delete(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}

	if err := s.vectorIndex.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete from index: %w", err)
	}
	if err := s.chunkStore.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.documentStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.logger.Info("document deleted", "document_id", id)
	return nil
}
