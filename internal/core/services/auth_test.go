package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven/mocks"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
)

const (
	testAdminKey  = "admin-key-123"
	testMemberKey = "member-key-456"
)

func newAuthFixture(t *testing.T) driving.AuthService {
	t.Helper()

	adapter := mocks.NewMockAuthAdapter()
	adminHash, err := adapter.HashAPIKey(testAdminKey)
	if err != nil {
		t.Fatalf("hash admin key: %v", err)
	}
	memberHash, err := adapter.HashAPIKey(testMemberKey)
	if err != nil {
		t.Fatalf("hash member key: %v", err)
	}

	return NewAuthService(adapter, APIKeyConfig{
		AdminKeyHash:  adminHash,
		MemberKeyHash: memberHash,
	}, slog.Default())
}

func TestAuthService_ExchangeAPIKey_Admin(t *testing.T) {
	svc := newAuthFixture(t)

	resp, err := svc.ExchangeAPIKey(context.Background(), domain.TokenRequest{APIKey: testAdminKey})
	if err != nil {
		t.Fatalf("ExchangeAPIKey() error = %v", err)
	}

	if resp.Role != domain.RoleAdmin {
		t.Errorf("Role = %q, want admin", resp.Role)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if !resp.ExpiresAt.After(time.Now().Add(23 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want ~24h out", resp.ExpiresAt)
	}
}

func TestAuthService_ExchangeAPIKey_Member(t *testing.T) {
	svc := newAuthFixture(t)

	resp, err := svc.ExchangeAPIKey(context.Background(), domain.TokenRequest{APIKey: testMemberKey})
	if err != nil {
		t.Fatalf("ExchangeAPIKey() error = %v", err)
	}
	if resp.Role != domain.RoleMember {
		t.Errorf("Role = %q, want member", resp.Role)
	}
}

func TestAuthService_ExchangeAPIKey_WrongKey(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.ExchangeAPIKey(context.Background(), domain.TokenRequest{APIKey: "not-a-key"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("ExchangeAPIKey() error = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_ExchangeAPIKey_EmptyKey(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.ExchangeAPIKey(context.Background(), domain.TokenRequest{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("ExchangeAPIKey() error = %v, want ErrInvalidInput", err)
	}
}

func TestAuthService_ValidateToken_RoundTrip(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.ExchangeAPIKey(ctx, domain.TokenRequest{APIKey: testAdminKey})
	if err != nil {
		t.Fatalf("ExchangeAPIKey() error = %v", err)
	}

	authCtx, err := svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if authCtx.Role != domain.RoleAdmin {
		t.Errorf("Role = %q, want admin", authCtx.Role)
	}
	if !authCtx.IsAdmin() {
		t.Error("IsAdmin() = false for admin token")
	}
	if authCtx.ClientID == "" {
		t.Error("missing client ID")
	}
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.ValidateToken(context.Background(), "not a token")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestAuthService_ValidateToken_Empty(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.ValidateToken(context.Background(), "")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	adapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(adapter, APIKeyConfig{}, slog.Default())

	token, err := adapter.GenerateToken(&domain.TokenClaims{
		ClientID:  "client-1",
		Role:      domain.RoleMember,
		IssuedAt:  time.Now().Add(-48 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-24 * time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	_, err = svc.ValidateToken(context.Background(), token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestAuthService_DisabledRole(t *testing.T) {
	adapter := mocks.NewMockAuthAdapter()
	memberHash, _ := adapter.HashAPIKey(testMemberKey)

	// No admin key configured
	svc := NewAuthService(adapter, APIKeyConfig{MemberKeyHash: memberHash}, slog.Default())

	resp, err := svc.ExchangeAPIKey(context.Background(), domain.TokenRequest{APIKey: testMemberKey})
	if err != nil {
		t.Fatalf("ExchangeAPIKey() error = %v", err)
	}
	if resp.Role != domain.RoleMember {
		t.Errorf("Role = %q, want member", resp.Role)
	}

	_, err = svc.ExchangeAPIKey(context.Background(), domain.TokenRequest{APIKey: testAdminKey})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("admin key with no admin hash: error = %v, want ErrUnauthorized", err)
	}
}
