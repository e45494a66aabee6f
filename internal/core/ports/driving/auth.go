package driving

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// AuthService handles client authentication
type AuthService interface {
	// ExchangeAPIKey validates an API key and issues a short-lived JWT
	ExchangeAPIKey(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error)

	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
