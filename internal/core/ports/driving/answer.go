package driving

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// AnswerService handles question answering over the indexed corpus
type AnswerService interface {
	// Ask answers a question using retrieved context.
	// Returns domain.ErrEmptyIndex when nothing has been indexed yet.
	Ask(ctx context.Context, question string, opts domain.RetrievalOptions) (*domain.Answer, error)

	// Retrieve runs the retrieval stage only: embed the query and return
	// the k most similar chunks without generating an answer.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.Retrieval, error)
}
