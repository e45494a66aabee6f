package services

import (
	"fmt"
	"strings"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// answerPromptTemplate grounds the model in retrieved context only.
// %s placeholders: context blocks, question.
const answerPromptTemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer based on the context, just say that you don't know; do not try to make up an answer.
When the answer comes from a specific section, mention which section it came from.

Context:
%s

Question: %s

Answer:`

// PromptBuilder assembles generation prompts from retrieved chunks.
// When a token counter is configured, chunks are dropped from the tail
// (lowest ranked first) until the prompt fits the token budget.
type PromptBuilder struct {
	counter   driven.TokenCounter
	maxTokens int
}

// NewPromptBuilder creates a PromptBuilder.
// counter may be nil, which disables budget trimming.
func NewPromptBuilder(counter driven.TokenCounter, maxTokens int) *PromptBuilder {
	return &PromptBuilder{
		counter:   counter,
		maxTokens: maxTokens,
	}
}

// BuildAnswerPrompt assembles the final prompt: retrieved chunks in
// retrieval order separated by blank lines, followed by the question
// verbatim. It also returns the chunks that made it into the prompt,
// so callers can tell when budget trimming dropped context.
func (b *PromptBuilder) BuildAnswerPrompt(question string, chunks []*domain.RetrievedChunk) (string, []*domain.RetrievedChunk, error) {
	return b.BuildAnswerPromptBudget(question, chunks, 0)
}

// BuildAnswerPromptBudget is BuildAnswerPrompt with a per-call token
// budget. maxTokens <= 0 falls back to the builder's configured budget.
func (b *PromptBuilder) BuildAnswerPromptBudget(question string, chunks []*domain.RetrievedChunk, maxTokens int) (string, []*domain.RetrievedChunk, error) {
	if maxTokens <= 0 {
		maxTokens = b.maxTokens
	}

	kept := chunks

	for {
		prompt := b.render(question, kept)

		if b.counter == nil || maxTokens <= 0 || len(kept) <= 1 {
			return prompt, kept, nil
		}

		count, err := b.counter.Count(prompt)
		if err != nil {
			return "", nil, fmt.Errorf("count prompt tokens: %w", err)
		}
		if count <= maxTokens {
			return prompt, kept, nil
		}

		// Over budget: drop the lowest-ranked chunk and retry
		kept = kept[:len(kept)-1]
	}
}

func (b *PromptBuilder) render(question string, chunks []*domain.RetrievedChunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, rc := range chunks {
		blocks = append(blocks, rc.Chunk.Content)
	}
	context := strings.Join(blocks, "\n\n")
	return fmt.Sprintf(answerPromptTemplate, context, question)
}
