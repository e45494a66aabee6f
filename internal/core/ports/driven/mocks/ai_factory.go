package mocks

import (
	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// MockAIFactory is a mock implementation of AIFactory for testing
type MockAIFactory struct {
	EmbeddingErr  error
	GenerationErr error
}

// NewMockAIFactory creates a new MockAIFactory
func NewMockAIFactory() *MockAIFactory {
	return &MockAIFactory{}
}

func (m *MockAIFactory) CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if m.EmbeddingErr != nil {
		return nil, m.EmbeddingErr
	}
	if !settings.Provider.IsValid() {
		return nil, domain.ErrInvalidProvider
	}
	return NewMockEmbeddingService(), nil
}

func (m *MockAIFactory) CreateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	if m.GenerationErr != nil {
		return nil, m.GenerationErr
	}
	if !settings.Provider.IsValid() {
		return nil, domain.ErrInvalidProvider
	}
	return NewMockGenerationService(), nil
}
