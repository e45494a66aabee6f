package domain

import "time"

// Role determines what a client is allowed to do
type Role string

const (
	// RoleAdmin can change AI settings and delete documents
	RoleAdmin Role = "admin"
	// RoleMember can ingest documents and ask questions
	RoleMember Role = "member"
)

// IsValid returns true if this is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// AuthContext contains authenticated client info for request context
type AuthContext struct {
	ClientID string `json:"client_id"`
	Role     Role   `json:"role"`
}

// IsAdmin checks if the authenticated client is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenRequest represents an API-key exchange attempt
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

// TokenResponse is returned after successful authentication
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      Role      `json:"role"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	ClientID  string `json:"client_id"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
