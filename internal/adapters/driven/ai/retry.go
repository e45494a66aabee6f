package ai

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go/v3"
)

const (
	// maxRetries is the retry budget for rate-limited requests
	maxRetries = 3

	// baseBackoff is the first retry delay; doubles each attempt
	baseBackoff = 2 * time.Second

	// maxBackoff caps the exponential backoff delay
	maxBackoff = 32 * time.Second
)

// isRateLimitError reports whether err is an HTTP 429 from the OpenAI API.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// backoffWait sleeps for the exponential backoff delay of the given attempt
// (1-based), respecting context cancellation.
func backoffWait(ctx context.Context, attempt int) error {
	delay := baseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			delay = maxBackoff
			break
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
