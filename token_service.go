package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
	now             func() time.Time
}

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock overrides the time source used for issuance and
// validation. Tests use this to pin expiry boundaries.
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenService creates a new TokenService instance. The signing key
// is fixed here and never read from ambient state.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger, opts ...TokenServiceOption) TokenService {
	if logger == nil {
		logger = defLogger{}
	}

	ts := &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(ts)
	}

	return ts
}

// Generate creates a signed JWT for the given identity
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	if identity == nil {
		return "", ErrTokenIssuance
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		UID: identity.ID(),
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims jwt.Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("TokenService failed to sign claims", "error", err)
		return "", errors.Wrap(err, ErrTokenIssuance.Category, ErrTokenIssuance.Message).
			WithTextCode(ErrTokenIssuance.TextCode)
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured
// claims. The signature is checked before expiry, so a tampered token is
// invalid even when its exp is in the past. Failures map to
// ErrTokenMalformed, ErrTokenInvalid, or ErrTokenExpired.
func (ts *TokenServiceImpl) Validate(tokenString string) (*JWTClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
				WithTextCode(ErrTokenInvalid.TextCode)
		}
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrUnableToDecodeSession
}

func (ts *TokenServiceImpl) tokenDefaults() tokenDefaults {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	return tokenDefaults{
		issuer:   ts.issuer,
		audience: aud,
		ttl:      time.Duration(ts.tokenExpiration) * time.Hour,
		now:      ts.now,
	}
}
