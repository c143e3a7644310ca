package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider resolves and verifies identities against the user store
type UserProvider struct {
	store  UserTracker
	logger Logger
}

// MaxLoginAttempts is the maximun number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare to the password, and return identity
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	// TODO: We should select id, password_hash, login_attempts, login_attempt_at
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	//if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// We have to increment the login_attempts counter and login_attempt_at
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	// reset the login_attempts counter and login_attempt_at
	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	aid := authIdentity{
		id:    user.ID.String(),
		email: user.Email,
		name:  user.Name,
	}

	return aid, nil
}

func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identfier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identfier)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	aid := authIdentity{
		email: user.Email,
		id:    user.ID.String(),
		name:  user.Name,
	}

	return aid, nil
}

type authIdentity struct {
	id    string
	name  string
	email string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Email() string {
	return a.email
}

var _ Identity = authIdentity{}
