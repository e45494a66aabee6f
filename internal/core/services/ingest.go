package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
	"github.com/helix-labs/quarry-core/internal/postprocessors"
	"github.com/helix-labs/quarry-core/internal/runtime"
)

// Ensure IngestOrchestrator implements IngestService
var _ driving.IngestService = (*IngestOrchestrator)(nil)

// embedBatchSize is the number of chunks embedded per provider call
const embedBatchSize = 100

// IngestConfig holds configuration for the ingest orchestrator.
type IngestConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	VectorIndex   driven.VectorIndex
	TaskQueue     driven.TaskQueue // Optional: required for IndexAsync
	SettingsStore driven.SettingsStore
	NormaliserReg driven.NormaliserRegistry
	Services      *runtime.Services // Dynamic AI services
	Logger        *slog.Logger
}

// IngestOrchestrator runs the indexing pipeline:
// normalise -> chunk -> embed -> store -> index.
// It is the write path of the system; retrieval never goes through it.
type IngestOrchestrator struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	vectorIndex   driven.VectorIndex
	taskQueue     driven.TaskQueue
	settingsStore driven.SettingsStore
	normaliserReg driven.NormaliserRegistry
	services      *runtime.Services
	logger        *slog.Logger
}

// NewIngestOrchestrator creates a new ingest orchestrator.
func NewIngestOrchestrator(cfg IngestConfig) *IngestOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IngestOrchestrator{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		vectorIndex:   cfg.VectorIndex,
		taskQueue:     cfg.TaskQueue,
		settingsStore: cfg.SettingsStore,
		normaliserReg: cfg.NormaliserReg,
		services:      cfg.Services,
		logger:        logger,
	}
}

// Index runs the full pipeline synchronously.
// Each call creates a new document, even for identical content.
func (o *IngestOrchestrator) Index(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	start := time.Now()

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}

	now := time.Now()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Source:    req.Source,
		MimeType:  mimeType,
		Metadata:  req.Metadata,
		CreatedAt: now,
	}

	result, err := o.process(ctx, doc, req.Content, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()

	o.logger.Info("document indexed",
		"document_id", doc.ID,
		"title", doc.Title,
		"chunks", result.ChunksCreated,
		"duration_ms", result.DurationMs,
	)

	return result, nil
}

// IndexAsync saves the document record and enqueues an indexing task.
// The content travels in the task payload so the worker can process it
// without a separate content store.
func (o *IngestOrchestrator) IndexAsync(ctx context.Context, req driving.IngestRequest) (*domain.Task, error) {
	if o.taskQueue == nil {
		return nil, fmt.Errorf("%w: task queue not configured", domain.ErrServiceUnavailable)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}

	now := time.Now()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Source:    req.Source,
		MimeType:  mimeType,
		Length:    len([]rune(req.Content)),
		Metadata:  req.Metadata,
		CreatedAt: now,
	}

	if err := o.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	payload := map[string]string{
		"document_id": doc.ID,
		"content":     req.Content,
	}
	if req.ChunkSize > 0 {
		payload["chunk_size"] = strconv.Itoa(req.ChunkSize)
	}
	if req.ChunkOverlap > 0 {
		payload["chunk_overlap"] = strconv.Itoa(req.ChunkOverlap)
	}

	task := domain.NewTask(domain.TaskTypeIndexDocument, payload)
	if err := o.taskQueue.Enqueue(ctx, task); err != nil {
		// No task will ever index this document, so don't leave the
		// record behind
		if delErr := o.documentStore.Delete(ctx, doc.ID); delErr != nil {
			o.logger.Warn("failed to remove document after enqueue failure",
				"document_id", doc.ID,
				"error", delErr)
		}
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	o.logger.Info("indexing task enqueued",
		"task_id", task.ID,
		"document_id", doc.ID,
	)

	return task, nil
}

// Reindex re-runs chunking and embedding for an existing document.
// The original content is reconstructed from the stored chunk spans.
func (o *IngestOrchestrator) Reindex(ctx context.Context, documentID string) (*domain.IngestResult, error) {
	start := time.Now()

	doc, err := o.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := o.chunkStore.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %s has no stored chunks", domain.ErrInvalidInput, documentID)
	}

	content := reassembleContent(chunks)

	// Drop the old chunks and vectors before re-running the pipeline
	if err := o.vectorIndex.DeleteByDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete from index: %w", err)
	}
	if err := o.chunkStore.DeleteByDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}

	result, err := o.process(ctx, doc, content, 0, 0)
	if err != nil {
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()

	o.logger.Info("document reindexed",
		"document_id", doc.ID,
		"chunks", result.ChunksCreated,
		"duration_ms", result.DurationMs,
	)

	return result, nil
}

// ProcessStored runs the pipeline for a document already saved by
// IndexAsync. Called by the worker when it picks up an indexing task.
func (o *IngestOrchestrator) ProcessStored(ctx context.Context, documentID, content string, chunkSize, chunkOverlap int) (*domain.IngestResult, error) {
	start := time.Now()

	doc, err := o.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	result, err := o.process(ctx, doc, content, chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// process is the shared pipeline body. The caller owns the document
// record; process fills in Length and IndexedAt and persists everything.
func (o *IngestOrchestrator) process(ctx context.Context, doc *domain.Document, content string, chunkSize, chunkOverlap int) (*domain.IngestResult, error) {
	embedding := o.services.EmbeddingService()
	if embedding == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}

	// Normalise content for the document's mime type
	if o.normaliserReg != nil {
		if normaliser := o.normaliserReg.Get(doc.MimeType); normaliser != nil {
			content = normaliser.Normalise(content, doc.MimeType)
		}
	}

	pipeline, err := o.buildPipeline(ctx, chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}

	pieces := pipeline.Process(content)

	now := time.Now()
	doc.Length = len([]rune(content))
	doc.IndexedAt = now

	chunks := make([]*domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, &domain.Chunk{
			ID:         fmt.Sprintf("%s-chunk-%d", doc.ID, i),
			DocumentID: doc.ID,
			Content:    piece.Content,
			Position:   piece.Position,
			StartChar:  piece.StartOffset,
			EndChar:    piece.EndOffset,
			CreatedAt:  now,
		})
	}

	if err := o.embedChunks(ctx, embedding, chunks); err != nil {
		return nil, err
	}

	if err := o.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if len(chunks) > 0 {
		if err := o.chunkStore.SaveBatch(ctx, chunks); err != nil {
			return nil, fmt.Errorf("save chunks: %w", err)
		}
		if err := o.vectorIndex.Insert(ctx, chunks); err != nil {
			return nil, fmt.Errorf("index chunks: %w", err)
		}
	}

	return &domain.IngestResult{
		DocumentID:    doc.ID,
		ChunksCreated: len(chunks),
		ChunksIndexed: len(chunks),
	}, nil
}

// buildPipeline resolves the chunking config: explicit overrides win,
// then persisted settings, then defaults.
func (o *IngestOrchestrator) buildPipeline(ctx context.Context, chunkSize, chunkOverlap int) (*postprocessors.Pipeline, error) {
	config := postprocessors.DefaultChunkConfig()

	if o.settingsStore != nil {
		if settings, err := o.settingsStore.GetSettings(ctx); err == nil && settings != nil {
			config.ChunkSize = settings.ChunkSize
			config.Overlap = settings.ChunkOverlap
		}
	}

	if chunkSize > 0 {
		config.ChunkSize = chunkSize
	}
	if chunkOverlap > 0 {
		config.Overlap = chunkOverlap
	}

	chunker, err := postprocessors.NewChunker(config)
	if err != nil {
		return nil, err
	}

	pipeline := postprocessors.NewPipeline()
	pipeline.Add(chunker)
	return pipeline, nil
}

// embedChunks generates embeddings in batches and attaches them to the
// chunks in order.
func (o *IngestOrchestrator) embedChunks(ctx context.Context, embedding driven.EmbeddingService, chunks []*domain.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := embedding.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(batch))
		}

		for i, vector := range vectors {
			batch[i].Embedding = vector
		}
	}
	return nil
}

// reassembleContent rebuilds the original text from overlapping chunks
// using their stored character spans.
func reassembleContent(chunks []*domain.Chunk) string {
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
	return body.String()
}
