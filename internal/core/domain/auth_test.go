package domain

import (
	"testing"
	"time"
)

func TestRoleIsValid(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleMember, true},
		{Role("viewer"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if tt.role.IsValid() != tt.expected {
				t.Errorf("expected IsValid() = %v for role %q", tt.expected, tt.role)
			}
		})
	}
}

func TestAuthContextIsAdmin(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleMember, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := &AuthContext{Role: tt.role}
			if ctx.IsAdmin() != tt.expected {
				t.Errorf("expected IsAdmin() = %v for role %s", tt.expected, tt.role)
			}
		})
	}
}

func TestTokenResponse(t *testing.T) {
	expiresAt := time.Now().Add(24 * time.Hour)

	resp := &TokenResponse{
		Token:     "jwt-token",
		ExpiresAt: expiresAt,
		Role:      RoleMember,
	}

	if resp.Token != "jwt-token" {
		t.Errorf("expected token jwt-token, got %s", resp.Token)
	}
	if resp.Role != RoleMember {
		t.Errorf("expected role member, got %s", resp.Role)
	}
}

func TestTokenClaims(t *testing.T) {
	now := time.Now()
	claims := &TokenClaims{
		ClientID:  "client-123",
		Role:      RoleAdmin,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(24 * time.Hour).Unix(),
	}

	if claims.ClientID != "client-123" {
		t.Errorf("expected ClientID client-123, got %s", claims.ClientID)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("expected Role admin, got %s", claims.Role)
	}
	if claims.ExpiresAt <= claims.IssuedAt {
		t.Error("ExpiresAt should be after IssuedAt")
	}
}
