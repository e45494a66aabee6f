package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
	"github.com/helix-labs/quarry-core/internal/runtime"
)

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// AnswerConfig configures the answer service
type AnswerConfig struct {
	// DefaultTopK is the number of chunks retrieved when neither the
	// caller nor the persisted settings specify one
	DefaultTopK int

	// MaxTopK caps caller-supplied k values
	MaxTopK int

	// CacheTTL is how long query embeddings stay cached
	CacheTTL time.Duration
}

// DefaultAnswerConfig returns sensible defaults
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		DefaultTopK: 3,
		MaxTopK:     20,
		CacheTTL:    time.Hour,
	}
}

// answerService implements the AnswerService interface:
// embed the question, retrieve the nearest chunks, assemble a prompt,
// and generate a grounded answer.
type answerService struct {
	vectorIndex   driven.VectorIndex
	documentStore driven.DocumentStore
	cache         driven.EmbeddingCache
	settingsStore driven.SettingsStore
	services      *runtime.Services // Dynamic AI services
	prompts       *PromptBuilder
	config        AnswerConfig
	logger        *slog.Logger
}

// NewAnswerService creates a new AnswerService.
// AI services (embedding, generation) are accessed dynamically via runtime.Services.
// cache and settingsStore may be nil; without a settings store the
// config defaults apply.
func NewAnswerService(
	vectorIndex driven.VectorIndex,
	documentStore driven.DocumentStore,
	cache driven.EmbeddingCache,
	settingsStore driven.SettingsStore,
	services *runtime.Services,
	prompts *PromptBuilder,
	config AnswerConfig,
	logger *slog.Logger,
) driving.AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &answerService{
		vectorIndex:   vectorIndex,
		documentStore: documentStore,
		cache:         cache,
		settingsStore: settingsStore,
		services:      services,
		prompts:       prompts,
		config:        config,
		logger:        logger,
	}
}

// Ask answers a question using retrieved context
func (s *answerService) Ask(ctx context.Context, question string, opts domain.RetrievalOptions) (*domain.Answer, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	generation := s.services.GenerationService()
	if generation == nil {
		return nil, fmt.Errorf("%w: generation service not configured", domain.ErrServiceUnavailable)
	}

	retrieval, err := s.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	budget := 0
	if settings := s.pipelineSettings(ctx); settings != nil {
		budget = settings.MaxPromptTokens
	}

	prompt, kept, err := s.prompts.BuildAnswerPromptBudget(question, retrieval.Results, budget)
	if err != nil {
		return nil, err
	}

	// The answer only claims grounding on context the model actually saw
	if len(kept) < len(retrieval.Results) {
		s.logger.Info("context trimmed to fit prompt budget",
			"retrieved", len(retrieval.Results),
			"kept", len(kept))
		retrieval.Results = kept
	}

	// Generation failures are surfaced to the caller unchanged
	text, err := generation.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("question answered",
		"chunks", len(retrieval.Results),
		"model", generation.Model(),
		"took", time.Since(start))

	return &domain.Answer{
		Question:  question,
		Text:      text,
		Retrieval: retrieval,
		Model:     generation.Model(),
		Took:      time.Since(start),
	}, nil
}

// Retrieve embeds the query and returns the k most similar chunks
func (s *answerService) Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.Retrieval, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	k := opts.TopK
	if k <= 0 {
		k = s.config.DefaultTopK
		// Persisted settings win over the static default so updates
		// apply without a restart
		if settings := s.pipelineSettings(ctx); settings != nil && settings.DefaultTopK > 0 {
			k = settings.DefaultTopK
		}
	}
	if s.config.MaxTopK > 0 && k > s.config.MaxTopK {
		k = s.config.MaxTopK
	}

	embedding := s.services.EmbeddingService()
	if embedding == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}

	count, err := s.vectorIndex.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count index: %w", err)
	}
	if count == 0 {
		return nil, domain.ErrEmptyIndex
	}

	queryEmbedding, err := s.embedQuery(ctx, embedding, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.vectorIndex.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	// Enrich with document data
	for _, rc := range results {
		if rc.Document != nil || rc.Chunk == nil {
			continue
		}
		doc, err := s.documentStore.Get(ctx, rc.Chunk.DocumentID)
		if err != nil {
			s.logger.Warn("document lookup failed for retrieved chunk",
				"document_id", rc.Chunk.DocumentID,
				"error", err)
			continue
		}
		rc.Document = doc
	}

	return &domain.Retrieval{
		Query:   query,
		Results: results,
		Took:    time.Since(start),
	}, nil
}

// pipelineSettings reads the persisted pipeline settings so updates take
// effect on the next request. Returns nil when no store is configured or
// the read fails; the caller falls back to its static config.
func (s *answerService) pipelineSettings(ctx context.Context) *domain.Settings {
	if s.settingsStore == nil {
		return nil
	}
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		return nil
	}
	return settings
}

// embedQuery embeds a query, consulting the cache first.
// Cache failures degrade to a direct embed call.
func (s *answerService) embedQuery(ctx context.Context, embedding driven.EmbeddingService, query string) ([]float32, error) {
	if s.cache == nil {
		return embedding.EmbedQuery(ctx, query)
	}

	model := embedding.Model()
	if cached, err := s.cache.Get(ctx, model, query); err == nil && cached != nil {
		return cached, nil
	}

	vector, err := embedding.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, model, query, vector, s.config.CacheTTL); err != nil {
		s.logger.Warn("embedding cache set failed", "error", err)
	}
	return vector, nil
}
