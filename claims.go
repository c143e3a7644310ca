package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string         `json:"uid,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
