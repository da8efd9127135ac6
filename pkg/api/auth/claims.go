// Package auth provides JWT authentication functionality for the PSM API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/psm-app/psm/pkg/models"
)

// TokenType indicates whether a token is an access token or refresh token.
type TokenType string

const (
	// TokenTypeAccess is a short-lived token used for API authorization.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is a long-lived token used to obtain new access tokens.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims represents JWT claims for PSM authentication.
//
// Claims carry the user's role so role gates can run without a database
// lookup. Fine-grained permission checks still resolve against the store,
// since per-user overrides can change between token issue and use.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the unique identifier (UUID) for the user.
	UserID string `json:"uid"`

	// Username is the human-readable username.
	Username string `json:"username"`

	// Role is the user's role ("super", "admin", "leader" or "member").
	Role string `json:"role"`

	// TokenType indicates whether this is an access or refresh token.
	TokenType TokenType `json:"token_type"`

	// MustChangePassword indicates the user must change their password.
	// When true, most API operations are blocked until password is changed.
	MustChangePassword bool `json:"must_change_password,omitempty"`
}

// IsAccessToken returns true if this is an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken returns true if this is a refresh token.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}

// IsSuper returns true if the user has the super role.
func (c *Claims) IsSuper() bool {
	return c.Role == string(models.RoleSuper)
}

// HasRole returns true if the user's role is one of the given roles.
func (c *Claims) HasRole(roles ...string) bool {
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}
