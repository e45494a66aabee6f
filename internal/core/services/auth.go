package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// APIKeyConfig holds the hashed API keys clients exchange for tokens.
// Keys are configured at deploy time; an empty hash disables that role.
type APIKeyConfig struct {
	AdminKeyHash  string
	MemberKeyHash string
}

// authService implements the AuthService interface
type authService struct {
	authAdapter driven.AuthAdapter
	keys        APIKeyConfig
	tokenTTL    time.Duration
	logger      *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter, keys APIKeyConfig, logger *slog.Logger) driving.AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		authAdapter: authAdapter,
		keys:        keys,
		tokenTTL:    24 * time.Hour,
		logger:      logger,
	}
}

// ExchangeAPIKey validates an API key and issues a short-lived JWT
func (s *authService) ExchangeAPIKey(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error) {
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return nil, domain.ErrInvalidInput
	}

	role, ok := s.resolveRole(apiKey)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &domain.TokenClaims{
		ClientID:  domain.GenerateID(),
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}

	token, err := s.authAdapter.GenerateToken(claims)
	if err != nil {
		return nil, err
	}

	s.logger.Info("token issued", "client_id", claims.ClientID, "role", role)

	return &domain.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      role,
	}, nil
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if claims.ExpiresAt > 0 && time.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	if !claims.Role.IsValid() {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		ClientID: claims.ClientID,
		Role:     claims.Role,
	}, nil
}

// resolveRole matches the API key against the configured hashes,
// admin first.
func (s *authService) resolveRole(apiKey string) (domain.Role, bool) {
	if s.keys.AdminKeyHash != "" && s.authAdapter.VerifyAPIKey(apiKey, s.keys.AdminKeyHash) {
		return domain.RoleAdmin, true
	}
	if s.keys.MemberKeyHash != "" && s.authAdapter.VerifyAPIKey(apiKey, s.keys.MemberKeyHash) {
		return domain.RoleMember, true
	}
	return "", false
}
