package mocks

import "strings"

// MockTokenCounter is a mock implementation of TokenCounter for testing.
// It counts whitespace-separated words, which is close enough to model
// tokenisation for budget tests.
type MockTokenCounter struct{}

// NewMockTokenCounter creates a new MockTokenCounter
func NewMockTokenCounter() *MockTokenCounter {
	return &MockTokenCounter{}
}

func (m *MockTokenCounter) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}
