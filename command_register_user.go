package auth

import (
	"context"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate enforces the registration contract before any storage I/O:
// name present, email well formed, password at least 8 chars carrying
// a lower case, an upper case, and a digit.
func (e RegisterUserMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return e.validate()
	}, "invalid registration payload")
}

func (e RegisterUserMessage) validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name,
			validation.Required,
			validation.Length(1, 255),
		),
		validation.Field(&e.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(&e.Password,
			validation.Required,
			validation.Length(8, 100),
			validation.By(requireCharClass(unicode.IsLower, "must contain a lower case letter")),
			validation.By(requireCharClass(unicode.IsUpper, "must contain an upper case letter")),
			validation.By(requireCharClass(unicode.IsDigit, "must contain a digit")),
		),
	)
}

func requireCharClass(class func(rune) bool, msg string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		for _, r := range s {
			if class(r) {
				return nil
			}
		}
		return goerrors.New(msg, goerrors.CategoryValidation)
	}
}

type RegisterUserResponse struct {
	User    *User
	Success bool
}

type RegisterUserHandler struct {
	repo RepositoryManager
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = NormalizeEmail(event.Email)
		user.Name = event.Name
		if event.UseHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if IsDuplicateEmailError(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			User:    user,
			Success: true,
		})
	}

	return nil
}
