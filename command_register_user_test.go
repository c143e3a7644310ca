package auth_test

import (
	"context"
	"database/sql"
	"testing"

	auth "github.com/goliatone/go-auth-api"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validRegisterMessage() auth.RegisterUserMessage {
	return auth.RegisterUserMessage{
		Name:     "Test User",
		Email:    "User@Example.com",
		Password: "Password123",
	}
}

func TestRegisterUserMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*auth.RegisterUserMessage)
		wantErr bool
	}{
		{
			name:    "valid payload",
			mutate:  func(m *auth.RegisterUserMessage) {},
			wantErr: false,
		},
		{
			name:    "missing name",
			mutate:  func(m *auth.RegisterUserMessage) { m.Name = "" },
			wantErr: true,
		},
		{
			name:    "invalid email",
			mutate:  func(m *auth.RegisterUserMessage) { m.Email = "not-an-email" },
			wantErr: true,
		},
		{
			name:    "short password",
			mutate:  func(m *auth.RegisterUserMessage) { m.Password = "Pw1" },
			wantErr: true,
		},
		{
			name:    "password without a digit",
			mutate:  func(m *auth.RegisterUserMessage) { m.Password = "PasswordOnly" },
			wantErr: true,
		},
		{
			name:    "password without an upper case letter",
			mutate:  func(m *auth.RegisterUserMessage) { m.Password = "password123" },
			wantErr: true,
		},
		{
			name:    "password without a lower case letter",
			mutate:  func(m *auth.RegisterUserMessage) { m.Password = "PASSWORD123" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validRegisterMessage()
			tt.mutate(&msg)

			err := msg.Validate()

			if !tt.wantErr {
				assert.Nil(t, err)
				return
			}

			require.NotNil(t, err)
			assert.Equal(t, goerrors.CategoryValidation, err.Category)
		})
	}
}

func TestRegisterUserHandlerExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user inside a transaction", func(t *testing.T) {
		users := new(MockUsers)
		repo := new(MockRepositoryManager)

		repo.On("Users").Return(users).Once()
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
			Return(nil).Once()

		created := &auth.User{ID: uuid.New(), Email: "user@example.com", Name: "Test User"}
		users.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Email == "user@example.com" &&
				u.Name == "Test User" &&
				u.PasswordHash != "" &&
				u.PasswordHash != "Password123"
		})).Return(created, nil).Once()

		var resp *auth.RegisterUserResponse
		msg := validRegisterMessage()
		msg.OnResponse = func(r *auth.RegisterUserResponse) { resp = r }

		handler := auth.NewRegisterUserHandler(repo)

		err := handler.Execute(ctx, msg)

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.Equal(t, created, resp.User)

		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("duplicate email surfaces as a registration conflict", func(t *testing.T) {
		users := new(MockUsers)
		repo := new(MockRepositoryManager)

		repo.On("Users").Return(users).Once()
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
			Return(nil).Once()

		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, auth.ErrDuplicateEmail).Once()

		handler := auth.NewRegisterUserHandler(repo)

		err := handler.Execute(ctx, validRegisterMessage())

		assert.True(t, auth.IsDuplicateEmailError(err))

		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("invalid payload never reaches the repository", func(t *testing.T) {
		repo := new(MockRepositoryManager)
		handler := auth.NewRegisterUserHandler(repo)

		msg := validRegisterMessage()
		msg.Password = "short"

		err := handler.Execute(ctx, msg)

		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)

		repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled context aborts before validation", func(t *testing.T) {
		repo := new(MockRepositoryManager)
		handler := auth.NewRegisterUserHandler(repo)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := handler.Execute(cancelled, validRegisterMessage())

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
