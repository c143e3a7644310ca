package auth

import (
	"context"
	"reflect"

	goerrors "github.com/goliatone/go-errors"
)

type Auther struct {
	provider        IdentityProvider
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	// Initialize TokenService with configuration from opts
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	// Update the TokenService logger as well
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithTokenService replaces the token service, e.g. to inject a clock.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and issues a signed token. Unknown identifier
// and wrong password both come back as ErrInvalidCredentials; only the
// cool down rejection and signing faults surface differently.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, identifier, password); err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", s.foldCredentialError(err)
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation failed", "error", err)
		return "", goerrors.Wrap(err, ErrTokenIssuance.Category, ErrTokenIssuance.Message).
			WithTextCode(ErrTokenIssuance.TextCode)
	}

	return token, nil
}

// foldCredentialError collapses verification failures into the single
// generic credentials error so responses cannot be used for enumeration.
func (s *Auther) foldCredentialError(err error) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeTooManyAttempts {
		return err
	}

	if goerrors.Is(err, ErrMismatchedHashAndPassword) || goerrors.Is(err, ErrIdentityNotFound) {
		return ErrInvalidCredentials
	}

	if goerrors.IsNotFound(err) {
		return ErrInvalidCredentials
	}

	return err
}

// Impersonate issues a token for an identifier without a password check.
// Operator tooling only, never reachable from the HTTP surface.
func (s *Auther) Impersonate(ctx context.Context, identifier string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.FindIdentityByIdentifier(ctx, identifier); err != nil {
		s.logger.Error("Impersonate verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Impersonate identity is nil")
		return "", ErrIdentityNotFound
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Impersonate token generation failed", "error", err)
		return "", err
	}

	return token, nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())

	if err != nil {
		s.logger.Error("IdentityFromSession findidentity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = ValidatorFromService(s.tokenService)
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	// Convert AuthClaims to SessionObject
	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}
