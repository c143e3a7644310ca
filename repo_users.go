package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reseted_at" = current_timestamp
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the credential store surface the auth service needs.
type Users interface {
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

// CreateTx inserts a user after checking the email is unused. The unique
// index backs the check; the lookup gives us a typed conflict error
// instead of a driver specific constraint failure.
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)

	if record.Email != "" {
		existing, err := a.GetByIdentifierTx(ctx, tx, record.Email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return nil, err
		}
		if err == nil && existing != nil {
			return nil, errors.Wrap(ErrDuplicateEmail, ErrDuplicateEmail.Category, ErrDuplicateEmail.Message).
				WithTextCode(ErrDuplicateEmail.TextCode).
				WithMetadata(map[string]any{"email": record.Email})
		}
	}

	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if res == nil || len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	// NOTE: Updating using the ORM fails due to a bug, it wont reset
	// login_attempt_at, login_attempts fields.
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  NormalizeEmail(trimmed),
		})
	}

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
