package auth

import (
	"github.com/goliatone/go-auth-api/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// CurrentUserKey is the locals key the middleware stores the resolved
// user under once the token subject maps to a live record.
const CurrentUserKey = "current_user"

type RouteAuthenticator struct {
	auth         Authenticator
	repo         RepositoryManager
	cfg          Config
	validator    TokenValidator
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

func NewHTTPAuthenticator(auther Authenticator, repo RepositoryManager, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		repo:   repo,
		Logger: defLogger{},
	}

	if provider, ok := auther.(interface{ TokenService() TokenService }); ok {
		a.validator = ValidatorFromService(provider.TokenService())
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// WithTokenValidator overrides the validator used by ProtectedRoute.
func (a *RouteAuthenticator) WithTokenValidator(v TokenValidator) *RouteAuthenticator {
	if v != nil {
		a.validator = v
	}
	return a
}

// WithLogger overrides the logger.
func (a *RouteAuthenticator) WithLogger(l Logger) *RouteAuthenticator {
	if l != nil {
		a.Logger = l
	}
	return a
}

// ProtectedRoute gates a route behind bearer token auth. The request
// walks extract, validate, resolve user, attach, in that order; the
// first failure short circuits into errorHandler with a 401.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if a.validator == nil {
		panic("auth: ProtectedRoute requires a token validator")
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:      cfg.GetAuthScheme(),
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		TokenValidator:  jwtValidatorAdapter{validator: a.validator},
		ContextEnricher: ContextEnricherAdapter,
		SuccessHandler:  a.resolveCurrentUser(cfg, errorHandler),
	})
}

// resolveCurrentUser maps the validated token subject back to a stored
// user. A subject that no longer resolves is treated as an invalid
// token, not as a distinct condition a client could probe for.
func (a *RouteAuthenticator) resolveCurrentUser(cfg Config, errorHandler func(router.Context, error) error) router.HandlerFunc {
	return func(ctx router.Context) error {
		claims, ok := GetRouterClaims(ctx, cfg.GetContextKey())
		if !ok {
			return errorHandler(ctx, ErrUnableToMapClaims)
		}

		user, err := a.repo.Users().GetByIdentifier(ctx.Context(), claims.UserID())
		if err != nil {
			a.Logger.Warn("token subject no longer resolves", "subject", claims.UserID())
			return errorHandler(ctx, ErrIdentityNotFound)
		}

		ctx.Locals(CurrentUserKey, user)
		ctx.SetContext(WithContext(ctx.Context(), user))

		return ctx.Next()
	}
}

// Login verifies credentials and returns the issued token.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	return token, nil
}

// Logout acknowledges the request. Tokens are stateless so there is no
// server side session to clear; the token stays valid until expiry.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.Logger.Debug("Logout acknowledged", "path", ctx.OriginalURL())
}

// MakeClientRouteAuthErrorHandler renders every middleware rejection as
// a 401 with a reason specific message and text code.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		reason := "token invalid"
		code := TextCodeTokenInvalid

		switch {
		case errors.Is(err, jwtware.ErrJWTMissing), errors.Is(err, ErrUnableToFindSession):
			reason = "no token supplied"
			code = TextCodeTokenMissing
		case IsTokenExpiredError(err):
			reason = "token expired"
			code = TextCodeTokenExpired
		case IsMalformedError(err):
			reason = "token invalid"
			code = TextCodeTokenMalformed
		}

		a.Logger.Info(
			"Rejected request",
			"reason", reason,
			"text_code", code,
			"path", ctx.OriginalURL(),
		)

		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": reason,
			"code":  code,
		})
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return c.JSON(router.StatusUnauthorized, map[string]string{
			"error": richErr.Message,
			"code":  richErr.TextCode,
		})
	default:
		return c.JSON(router.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

// jwtValidatorAdapter bridges the package TokenValidator into the
// middleware's interface without an import cycle.
type jwtValidatorAdapter struct {
	validator TokenValidator
}

func (j jwtValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := j.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
