package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// TODO: enable only in development!
func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s aud=%v iss=%s iat=%s data=%v",
		s.UserID,
		s.Audience,
		s.Issuer,
		issuedAt,
		s.Data,
	)
}

// sessionFromAuthClaims creates a SessionObject from the AuthClaims interface
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	data := make(map[string]any)

	var audience []string
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if len(jwtClaims.Metadata) > 0 {
			data["metadata"] = jwtClaims.Metadata
		}

		for _, aud := range jwtClaims.RegisteredClaims.Audience {
			audience = append(audience, aud)
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		Audience:       audience,
		Issuer:         getIssuerFromClaims(claims),
		Data:           data,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}

// getIssuerFromClaims extracts the issuer from AuthClaims
func getIssuerFromClaims(claims AuthClaims) string {
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if jwtClaims.RegisteredClaims.Issuer != "" {
			return jwtClaims.RegisteredClaims.Issuer
		}
	}
	// Fallback to subject if no issuer is available
	return claims.Subject()
}
