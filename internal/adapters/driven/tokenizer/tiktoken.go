// Package tokenizer provides model token counting for prompt assembly.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenCounter = (*TiktokenCounter)(nil)

// defaultEncoding covers GPT-4 era models including the embedding models
const defaultEncoding = "cl100k_base"

// TiktokenCounter counts tokens using the tiktoken BPE encodings.
type TiktokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a token counter for the given encoding.
// An empty encoding falls back to cl100k_base.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding %q: %w", encoding, err)
	}

	return &TiktokenCounter{encoder: encoder}, nil
}

// NewTiktokenCounterForModel creates a token counter for a model name,
// falling back to cl100k_base for unknown models.
func NewTiktokenCounterForModel(model string) (*TiktokenCounter, error) {
	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return NewTiktokenCounter(defaultEncoding)
	}
	return &TiktokenCounter{encoder: encoder}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	tokens := c.encoder.Encode(text, nil, nil)
	return len(tokens), nil
}
