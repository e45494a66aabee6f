package driven

import "github.com/helix-labs/quarry-core/internal/core/domain"

// AuthAdapter handles authentication cryptographic operations.
type AuthAdapter interface {
	// API key operations
	HashAPIKey(apiKey string) (string, error)
	VerifyAPIKey(apiKey, hash string) bool

	// Token operations
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
