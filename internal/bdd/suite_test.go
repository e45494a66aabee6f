// Package bdd runs behaviour tests for the full pipeline: ingestion,
// retrieval and answering wired together with in-memory adapters.
package bdd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/helix-labs/quarry-core/internal/adapters/driven/memory"
	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven/mocks"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
	"github.com/helix-labs/quarry-core/internal/core/services"
	"github.com/helix-labs/quarry-core/internal/normalisers"
	"github.com/helix-labs/quarry-core/internal/runtime"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("feature tests failed")
	}
}

// pipelineWorld holds the wired pipeline and the state of the current scenario
type pipelineWorld struct {
	docStore    *mocks.MockDocumentStore
	chunkStore  *mocks.MockChunkStore
	vectorIndex *memory.VectorIndex
	runtime     *runtime.Services

	orchestrator    *services.IngestOrchestrator
	answerService   driving.AnswerService
	documentService driving.DocumentService

	lastResult    *domain.IngestResult
	lastAnswer    *domain.Answer
	lastRetrieval *domain.Retrieval
	lastErr       error
}

func (w *pipelineWorld) reset() {
	w.docStore = mocks.NewMockDocumentStore()
	w.chunkStore = mocks.NewMockChunkStore()
	w.vectorIndex = memory.NewVectorIndex()

	w.runtime = runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"))
	w.runtime.SetEmbeddingService(mocks.NewMockEmbeddingService())
	w.runtime.SetGenerationService(mocks.NewMockGenerationService())

	w.orchestrator = services.NewIngestOrchestrator(services.IngestConfig{
		DocumentStore: w.docStore,
		ChunkStore:    w.chunkStore,
		VectorIndex:   w.vectorIndex,
		SettingsStore: mocks.NewMockSettingsStore(),
		NormaliserReg: normalisers.DefaultRegistry(),
		Services:      w.runtime,
	})

	prompts := services.NewPromptBuilder(mocks.NewMockTokenCounter(), 4096)
	w.answerService = services.NewAnswerService(
		w.vectorIndex,
		w.docStore,
		nil,
		nil,
		w.runtime,
		prompts,
		services.DefaultAnswerConfig(),
		nil,
	)

	w.documentService = services.NewDocumentService(w.docStore, w.chunkStore, w.vectorIndex, nil)

	w.lastResult = nil
	w.lastAnswer = nil
	w.lastRetrieval = nil
	w.lastErr = nil
}

// Givens

func (w *pipelineWorld) aConfiguredPipeline() error {
	w.reset()
	return nil
}

func (w *pipelineWorld) anIndexedDocument(title, content string) error {
	result, err := w.orchestrator.Index(context.Background(), driving.IngestRequest{
		Title:   title,
		Content: content,
	})
	if err != nil {
		return err
	}
	w.lastResult = result
	return nil
}

// Whens

func (w *pipelineWorld) iIndexADocument(title string, content *godog.DocString) error {
	w.lastResult, w.lastErr = w.orchestrator.Index(context.Background(), driving.IngestRequest{
		Title:   title,
		Content: content.Content,
	})
	return nil
}

func (w *pipelineWorld) iIndexWithChunkConfig(chunkSize, chunkOverlap int) error {
	w.lastResult, w.lastErr = w.orchestrator.Index(context.Background(), driving.IngestRequest{
		Title:        "Sized",
		Content:      strings.Repeat("All work and no play makes for dull retrieval. ", 10),
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	})
	return nil
}

func (w *pipelineWorld) iAsk(question string) error {
	w.lastAnswer, w.lastErr = w.answerService.Ask(context.Background(), question, domain.DefaultRetrievalOptions())
	return nil
}

func (w *pipelineWorld) iRetrieve(query string) error {
	w.lastRetrieval, w.lastErr = w.answerService.Retrieve(context.Background(), query, domain.DefaultRetrievalOptions())
	return nil
}

func (w *pipelineWorld) iDeleteTheDocument() error {
	if w.lastResult == nil {
		return errors.New("no document indexed in this scenario")
	}
	return w.documentService.Delete(context.Background(), w.lastResult.DocumentID)
}

// Thens

func (w *pipelineWorld) ingestResultReportsChunks() error {
	if w.lastErr != nil {
		return fmt.Errorf("unexpected error: %w", w.lastErr)
	}
	if w.lastResult == nil {
		return errors.New("no ingest result")
	}
	if w.lastResult.ChunksCreated == 0 {
		return errors.New("expected at least one chunk created")
	}
	if w.lastResult.ChunksIndexed != w.lastResult.ChunksCreated {
		return fmt.Errorf("indexed %d of %d chunks", w.lastResult.ChunksIndexed, w.lastResult.ChunksCreated)
	}
	return nil
}

func (w *pipelineWorld) documentIsRetrievableWithChunks() error {
	doc, err := w.documentService.GetWithChunks(context.Background(), w.lastResult.DocumentID)
	if err != nil {
		return err
	}
	if len(doc.Chunks) != w.lastResult.ChunksCreated {
		return fmt.Errorf("expected %d chunks, got %d", w.lastResult.ChunksCreated, len(doc.Chunks))
	}
	return nil
}

func (w *pipelineWorld) everyChunkIsInTheVectorIndex() error {
	count, err := w.vectorIndex.Count(context.Background())
	if err != nil {
		return err
	}
	if count != w.lastResult.ChunksIndexed {
		return fmt.Errorf("index holds %d chunks, expected %d", count, w.lastResult.ChunksIndexed)
	}
	return nil
}

func (w *pipelineWorld) everyChunkIsAtMost(maxLen int) error {
	if w.lastErr != nil {
		return fmt.Errorf("unexpected error: %w", w.lastErr)
	}
	chunks, err := w.chunkStore.GetByDocument(context.Background(), w.lastResult.DocumentID)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if len([]rune(chunk.Content)) > maxLen {
			return fmt.Errorf("chunk %d is %d characters, limit %d", chunk.Position, len([]rune(chunk.Content)), maxLen)
		}
	}
	return nil
}

func (w *pipelineWorld) indexingFailsWithInvalidChunkConfig() error {
	if !errors.Is(w.lastErr, domain.ErrInvalidChunkConfig) {
		return fmt.Errorf("expected invalid chunk config error, got %v", w.lastErr)
	}
	return nil
}

func (w *pipelineWorld) vectorIndexIsEmpty() error {
	count, err := w.vectorIndex.Count(context.Background())
	if err != nil {
		return err
	}
	if count != 0 {
		return fmt.Errorf("index still holds %d chunks", count)
	}
	return nil
}

func (w *pipelineWorld) iReceiveAGeneratedAnswer() error {
	if w.lastErr != nil {
		return fmt.Errorf("unexpected error: %w", w.lastErr)
	}
	if w.lastAnswer == nil || w.lastAnswer.Text == "" {
		return errors.New("expected a non-empty answer")
	}
	return nil
}

func (w *pipelineWorld) answerIncludesRetrievedContext() error {
	if w.lastAnswer.Retrieval == nil || len(w.lastAnswer.Retrieval.Results) == 0 {
		return errors.New("expected retrieval results attached to the answer")
	}
	for _, rc := range w.lastAnswer.Retrieval.Results {
		if rc.Chunk == nil || rc.Chunk.Content == "" {
			return errors.New("retrieved chunk has no content")
		}
	}
	return nil
}

func (w *pipelineWorld) retrievalReturnsScoredResults() error {
	if w.lastErr != nil {
		return fmt.Errorf("unexpected error: %w", w.lastErr)
	}
	if w.lastRetrieval == nil || len(w.lastRetrieval.Results) == 0 {
		return errors.New("expected at least one retrieval result")
	}
	return nil
}

func (w *pipelineWorld) askingFailsBecauseIndexIsEmpty() error {
	if !errors.Is(w.lastErr, domain.ErrEmptyIndex) {
		return fmt.Errorf("expected empty index error, got %v", w.lastErr)
	}
	return nil
}

func (w *pipelineWorld) askingFailsWithInvalidInput() error {
	if !errors.Is(w.lastErr, domain.ErrInvalidInput) {
		return fmt.Errorf("expected invalid input error, got %v", w.lastErr)
	}
	return nil
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &pipelineWorld{}

	sc.Step(`^a configured pipeline$`, w.aConfiguredPipeline)
	sc.Step(`^an indexed document titled "([^"]*)" with content "([^"]*)"$`, w.anIndexedDocument)

	sc.Step(`^I index a document titled "([^"]*)" with content:$`, w.iIndexADocument)
	sc.Step(`^I index a document with chunk size (\d+) and overlap (\d+)$`, w.iIndexWithChunkConfig)
	sc.Step(`^I ask "([^"]*)"$`, w.iAsk)
	sc.Step(`^I retrieve chunks for "([^"]*)"$`, w.iRetrieve)
	sc.Step(`^I delete the document$`, w.iDeleteTheDocument)

	sc.Step(`^the ingest result reports the indexed chunks$`, w.ingestResultReportsChunks)
	sc.Step(`^the document is retrievable with its chunks$`, w.documentIsRetrievableWithChunks)
	sc.Step(`^every chunk is present in the vector index$`, w.everyChunkIsInTheVectorIndex)
	sc.Step(`^every stored chunk is at most (\d+) characters long$`, w.everyChunkIsAtMost)
	sc.Step(`^indexing fails with an invalid chunk configuration error$`, w.indexingFailsWithInvalidChunkConfig)
	sc.Step(`^the vector index is empty$`, w.vectorIndexIsEmpty)
	sc.Step(`^I receive a generated answer$`, w.iReceiveAGeneratedAnswer)
	sc.Step(`^the answer includes the retrieved context$`, w.answerIncludesRetrievedContext)
	sc.Step(`^the retrieval returns scored results$`, w.retrievalReturnsScoredResults)
	sc.Step(`^asking fails because the index is empty$`, w.askingFailsBecauseIndexIsEmpty)
	sc.Step(`^asking fails with an invalid input error$`, w.askingFailsWithInvalidInput)
}
