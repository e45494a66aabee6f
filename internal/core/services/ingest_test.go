package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven/mocks"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
	"github.com/helix-labs/quarry-core/internal/normalisers"
	"github.com/helix-labs/quarry-core/internal/runtime"
)

type ingestFixture struct {
	orchestrator  *IngestOrchestrator
	services      *runtime.Services
	embedding     *mocks.MockEmbeddingService
	documentStore *mocks.MockDocumentStore
	chunkStore    *mocks.MockChunkStore
	vectorIndex   *mocks.MockVectorIndex
	taskQueue     *mocks.MockTaskQueue
	settingsStore *mocks.MockSettingsStore
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	services := runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"))
	embedding := mocks.NewMockEmbeddingService()
	services.SetEmbeddingService(embedding)

	documentStore := mocks.NewMockDocumentStore()
	chunkStore := mocks.NewMockChunkStore()
	vectorIndex := mocks.NewMockVectorIndex()
	taskQueue := mocks.NewMockTaskQueue()
	settingsStore := mocks.NewMockSettingsStore()

	orchestrator := NewIngestOrchestrator(IngestConfig{
		DocumentStore: documentStore,
		ChunkStore:    chunkStore,
		VectorIndex:   vectorIndex,
		TaskQueue:     taskQueue,
		SettingsStore: settingsStore,
		NormaliserReg: normalisers.DefaultRegistry(),
		Services:      services,
		Logger:        slog.Default(),
	})

	return &ingestFixture{
		orchestrator:  orchestrator,
		services:      services,
		embedding:     embedding,
		documentStore: documentStore,
		chunkStore:    chunkStore,
		vectorIndex:   vectorIndex,
		taskQueue:     taskQueue,
		settingsStore: settingsStore,
	}
}

func TestIngestOrchestrator_Index(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	content := strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 60))

	result, err := f.orchestrator.Index(ctx, driving.IngestRequest{
		Title:   "Lorem",
		Content: content,
	})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	if result.DocumentID == "" {
		t.Error("expected a document ID")
	}
	if result.ChunksCreated == 0 {
		t.Error("expected chunks to be created")
	}
	if result.ChunksIndexed != result.ChunksCreated {
		t.Errorf("ChunksIndexed = %d, want %d", result.ChunksIndexed, result.ChunksCreated)
	}

	doc, err := f.documentStore.Get(ctx, result.DocumentID)
	if err != nil {
		t.Fatalf("document not saved: %v", err)
	}
	if doc.Length != len([]rune(content)) {
		t.Errorf("doc.Length = %d, want %d", doc.Length, len([]rune(content)))
	}
	if doc.IndexedAt.IsZero() {
		t.Error("IndexedAt not set")
	}
	if doc.MimeType != "text/plain" {
		t.Errorf("MimeType = %q, want default text/plain", doc.MimeType)
	}

	chunks, err := f.chunkStore.GetByDocument(ctx, result.DocumentID)
	if err != nil {
		t.Fatalf("chunks not saved: %v", err)
	}
	if len(chunks) != result.ChunksCreated {
		t.Errorf("stored %d chunks, want %d", len(chunks), result.ChunksCreated)
	}
	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			t.Errorf("chunk %d missing embedding", i)
		}
		if chunk.Position != i {
			t.Errorf("chunk %d has position %d", i, chunk.Position)
		}
	}

	count, _ := f.vectorIndex.Count(ctx)
	if count != result.ChunksIndexed {
		t.Errorf("index holds %d chunks, want %d", count, result.ChunksIndexed)
	}
}

func TestIngestOrchestrator_Index_NewDocumentEachCall(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	req := driving.IngestRequest{Title: "Same", Content: "identical content"}

	first, err := f.orchestrator.Index(ctx, req)
	if err != nil {
		t.Fatalf("first Index() error = %v", err)
	}
	second, err := f.orchestrator.Index(ctx, req)
	if err != nil {
		t.Fatalf("second Index() error = %v", err)
	}

	if first.DocumentID == second.DocumentID {
		t.Error("identical content should still create distinct documents")
	}
	if n, _ := f.documentStore.Count(ctx); n != 2 {
		t.Errorf("document count = %d, want 2", n)
	}
}

func TestIngestOrchestrator_Index_EmptyTitle(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.orchestrator.Index(context.Background(), driving.IngestRequest{Content: "body"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Index() error = %v, want ErrInvalidInput", err)
	}
}

func TestIngestOrchestrator_Index_EmptyContent(t *testing.T) {
	f := newIngestFixture(t)

	result, err := f.orchestrator.Index(context.Background(), driving.IngestRequest{Title: "Empty"})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.ChunksCreated != 0 {
		t.Errorf("ChunksCreated = %d, want 0 for empty content", result.ChunksCreated)
	}
	// The document record still exists
	if _, err := f.documentStore.Get(context.Background(), result.DocumentID); err != nil {
		t.Errorf("document not saved: %v", err)
	}
}

func TestIngestOrchestrator_Index_ChunkingOverrides(t *testing.T) {
	f := newIngestFixture(t)
	content := strings.Repeat("a", 100)

	result, err := f.orchestrator.Index(context.Background(), driving.IngestRequest{
		Title:        "Tiny windows",
		Content:      content,
		ChunkSize:    10,
		ChunkOverlap: 0,
	})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.ChunksCreated != 10 {
		t.Errorf("ChunksCreated = %d, want 10 with size 10 / overlap 0", result.ChunksCreated)
	}
}

func TestIngestOrchestrator_Index_InvalidChunkConfig(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.orchestrator.Index(context.Background(), driving.IngestRequest{
		Title:        "Bad config",
		Content:      "body",
		ChunkSize:    50,
		ChunkOverlap: 50,
	})
	if !errors.Is(err, domain.ErrInvalidChunkConfig) {
		t.Errorf("Index() error = %v, want ErrInvalidChunkConfig", err)
	}
}

func TestIngestOrchestrator_Index_SettingsApply(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	settings := domain.DefaultSettings()
	settings.ChunkSize = 20
	settings.ChunkOverlap = 0
	if err := f.settingsStore.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	result, err := f.orchestrator.Index(ctx, driving.IngestRequest{
		Title:   "Configured",
		Content: strings.Repeat("b", 100),
	})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.ChunksCreated != 5 {
		t.Errorf("ChunksCreated = %d, want 5 from persisted settings", result.ChunksCreated)
	}
}

func TestIngestOrchestrator_Index_NoEmbeddingService(t *testing.T) {
	f := newIngestFixture(t)
	f.services.SetEmbeddingService(nil)

	_, err := f.orchestrator.Index(context.Background(), driving.IngestRequest{Title: "T", Content: "body"})
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("Index() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestIngestOrchestrator_Index_EmbeddingFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.embedding.SetFailNext(true)

	_, err := f.orchestrator.Index(context.Background(), driving.IngestRequest{Title: "T", Content: "body"})
	if err == nil {
		t.Fatal("Index() expected error when embedding fails")
	}
	// Nothing is persisted on failure
	if n, _ := f.documentStore.Count(context.Background()); n != 0 {
		t.Errorf("document count = %d, want 0 after failed ingest", n)
	}
}

func TestIngestOrchestrator_IndexAsync(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	task, err := f.orchestrator.IndexAsync(ctx, driving.IngestRequest{
		Title:   "Async",
		Content: "queued content",
	})
	if err != nil {
		t.Fatalf("IndexAsync() error = %v", err)
	}

	if task.Type != domain.TaskTypeIndexDocument {
		t.Errorf("task type = %q", task.Type)
	}
	if task.Status != domain.TaskStatusPending {
		t.Errorf("task status = %q, want pending", task.Status)
	}
	if task.DocumentID() == "" {
		t.Error("task missing document_id payload")
	}
	if task.Payload["content"] != "queued content" {
		t.Error("task missing content payload")
	}

	// Document record is saved eagerly, chunks only on processing
	if _, err := f.documentStore.Get(ctx, task.DocumentID()); err != nil {
		t.Errorf("document not saved: %v", err)
	}
	if f.chunkStore.Count() != 0 {
		t.Error("chunks should not exist before the task runs")
	}
	if f.taskQueue.PendingCount() != 1 {
		t.Errorf("pending tasks = %d, want 1", f.taskQueue.PendingCount())
	}
}

func TestIngestOrchestrator_IndexAsync_EnqueueFailureRemovesDocument(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.taskQueue.SetEnqueueError(errors.New("queue backend down"))

	_, err := f.orchestrator.IndexAsync(ctx, driving.IngestRequest{
		Title:   "Orphan",
		Content: "never indexed",
	})
	if err == nil {
		t.Fatal("IndexAsync() expected error when enqueue fails")
	}

	// The eagerly saved record must not survive without a task to index it
	count, err := f.documentStore.Count(ctx)
	if err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if count != 0 {
		t.Errorf("documents = %d, want 0 after enqueue failure", count)
	}
}

func TestIngestOrchestrator_ProcessStored(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	task, err := f.orchestrator.IndexAsync(ctx, driving.IngestRequest{
		Title:   "Async",
		Content: strings.Repeat("queued content ", 50),
	})
	if err != nil {
		t.Fatalf("IndexAsync() error = %v", err)
	}

	result, err := f.orchestrator.ProcessStored(ctx, task.DocumentID(), task.Payload["content"], 0, 0)
	if err != nil {
		t.Fatalf("ProcessStored() error = %v", err)
	}
	if result.ChunksCreated == 0 {
		t.Error("expected chunks after processing")
	}
	if f.chunkStore.Count() != result.ChunksCreated {
		t.Errorf("stored %d chunks, want %d", f.chunkStore.Count(), result.ChunksCreated)
	}
}

func TestIngestOrchestrator_Reindex(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	content := strings.TrimSpace(strings.Repeat("reindex me please ", 60))
	first, err := f.orchestrator.Index(ctx, driving.IngestRequest{Title: "R", Content: content})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	// Tighten the chunk size and reindex
	settings := domain.DefaultSettings()
	settings.ChunkSize = 200
	settings.ChunkOverlap = 20
	if err := f.settingsStore.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	second, err := f.orchestrator.Reindex(ctx, first.DocumentID)
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}

	if second.DocumentID != first.DocumentID {
		t.Error("reindex must keep the document ID")
	}
	if second.ChunksCreated <= first.ChunksCreated {
		t.Errorf("smaller windows should create more chunks: %d vs %d", second.ChunksCreated, first.ChunksCreated)
	}

	// Old chunks are gone, only the new generation remains
	chunks, err := f.chunkStore.GetByDocument(ctx, first.DocumentID)
	if err != nil {
		t.Fatalf("get chunks: %v", err)
	}
	if len(chunks) != second.ChunksCreated {
		t.Errorf("stored %d chunks, want %d", len(chunks), second.ChunksCreated)
	}

	// Content survives the round trip
	rebuilt := reassembleContent(chunks)
	if rebuilt != content {
		t.Errorf("reassembled content differs: %d chars vs %d", len(rebuilt), len(content))
	}
}

func TestIngestOrchestrator_Reindex_UnknownDocument(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.orchestrator.Reindex(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Reindex() error = %v, want ErrNotFound", err)
	}
}

func TestReassembleContent(t *testing.T) {
	chunks := []*domain.Chunk{
		{Content: "abcdefgh", StartChar: 0, EndChar: 8},
		{Content: "ghijklmn", StartChar: 6, EndChar: 14},
		{Content: "mnopqr", StartChar: 12, EndChar: 18},
	}
	if got := reassembleContent(chunks); got != "abcdefghijklmnopqr" {
		t.Errorf("reassembleContent() = %q", got)
	}
}
