package mocks

import (
	"context"
	"errors"
	"sync"
)

// MockGenerationService is a mock implementation of GenerationService for testing
type MockGenerationService struct {
	mu       sync.Mutex
	model    string
	response string
	err      error
	prompts  []string
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{
		model:    "mock-generation-model",
		response: "mock answer",
	}
}

func (m *MockGenerationService) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *MockGenerationService) Model() string {
	return m.model
}

func (m *MockGenerationService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockGenerationService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockGenerationService) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

func (m *MockGenerationService) SetError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg == "" {
		m.err = nil
		return
	}
	m.err = errors.New(msg)
}

// LastPrompt returns the most recent prompt passed to Complete
func (m *MockGenerationService) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *MockGenerationService) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
