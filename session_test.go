package auth_test

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObjectGetters(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	session := &auth.SessionObject{
		UserID:   "user-123",
		Audience: []string{"test-audience"},
		Issuer:   "test-issuer",
		IssuedAt: &issued,
		Data:     map[string]any{"metadata": map[string]any{"tenant": "acme"}},
	}

	assert.Equal(t, "user-123", session.GetUserID())
	assert.Equal(t, []string{"test-audience"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &issued, session.GetIssuedAt())
	assert.Contains(t, session.GetData(), "metadata")
}

func TestSessionObjectGetUserUUID(t *testing.T) {
	t.Run("parses a uuid user id", func(t *testing.T) {
		id := uuid.New()
		session := &auth.SessionObject{UserID: id.String()}

		got, err := session.GetUserUUID()

		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("rejects a non uuid user id", func(t *testing.T) {
		session := &auth.SessionObject{UserID: "user-123"}

		_, err := session.GetUserUUID()

		assert.Error(t, err)
	})
}

func TestSessionObjectString(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	session := auth.SessionObject{
		UserID:   "user-123",
		Issuer:   "test-issuer",
		IssuedAt: &issued,
	}

	out := session.String()

	assert.Contains(t, out, "user=user-123")
	assert.Contains(t, out, "iss=test-issuer")

	assert.Contains(t, auth.SessionObject{}.String(), "iat=<nil>")
}

func TestSessionFromTokenClaims(t *testing.T) {
	cfg := newTestConfig()
	provider := new(MockIdentityProvider)
	auther := auth.NewAuthenticator(provider, cfg)

	identity := &MockIdentity{}
	identity.On("ID").Return("f47ac10b-58cc-0372-8567-0e02b2c3d479")

	token, err := auther.TokenService().Generate(identity)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, "f47ac10b-58cc-0372-8567-0e02b2c3d479", session.GetUserID())
	assert.Equal(t, cfg.Issuer, session.GetIssuer())
	assert.Equal(t, cfg.Audience, session.GetAudience())

	require.NotNil(t, session.GetIssuedAt())
	assert.WithinDuration(t, time.Now(), *session.GetIssuedAt(), time.Minute)
}
