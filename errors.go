package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes let API clients branch on failures without parsing messages.
const (
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenMissing       = "TOKEN_MISSING"
	TextCodeTokenIssuance      = "TOKEN_ISSUANCE_FAILED"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request carries no token
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT claims into a session
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrNoEmptyString rejects empty passwords before they reach bcrypt
var ErrNoEmptyString = errors.New("password cannot be an empty string")

// ErrMismatchedHashAndPassword is the provider level verification failure.
// Folded into ErrInvalidCredentials before it leaves the service.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// ErrTokenExpired is returned by TokenService.Validate for tokens past
// their expiry instant. Expiry is only checked once the signature holds.
var ErrTokenExpired = goerrors.New("authentication token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenInvalid covers tokens whose signature does not verify,
// including tokens signed with a different secret or with altered bytes.
var ErrTokenInvalid = goerrors.New("authentication token invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid)

// ErrTokenMalformed covers blobs that do not parse as a token at all.
var ErrTokenMalformed = goerrors.New("authentication token malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenIssuance is a signing fault after credentials already
// verified. Surfaced as an internal failure, never a credentials one.
var ErrTokenIssuance = goerrors.New("unable to issue authentication token", goerrors.CategoryInternal).
	WithTextCode(TextCodeTokenIssuance)

// ErrInvalidCredentials is the single generic login failure. Unknown
// email and wrong password are indistinguishable to callers.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials)

// ErrDuplicateEmail is the registration conflict for a taken email.
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail)

// ErrTooManyLoginAttempts enforces the login attempt cool down window.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateEmailError will check for registration conflicts
func IsDuplicateEmailError(err error) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeDuplicateEmail
}

// FormatValidationErrorToMap flattens an ozzo validation error into the
// field to message map we serialize on 400 responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		for field, ferr := range fields {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
