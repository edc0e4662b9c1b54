package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty/db"
)

func newAuthService() *AuthService {
	return NewAuthService(db.NewMemoryUserStore(), NewMemoryTokenStore(), time.Hour)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	auth := newAuthService()

	created, err := auth.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("DuplicateUsernameRejected", func(t *testing.T) {
		created, err := auth.Register(ctx, "alice", "other")
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("CorrectPassword", func(t *testing.T) {
		ok, err := auth.Authenticate(ctx, "alice", "s3cret")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		ok, err := auth.Authenticate(ctx, "alice", "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		ok, err := auth.Authenticate(ctx, "mallory", "s3cret")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSessionTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	auth := newAuthService()

	_, err := auth.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	token, err := auth.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := auth.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	require.NoError(t, auth.Logout(ctx, token))
	username, err = auth.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, username, "token must be invalid after logout")
}

func TestLoginWithBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth := newAuthService()

	_, err := auth.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	token, err := auth.Login(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenExpiry(t *testing.T) {
	ctx := context.Background()
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(ctx, "tok", "alice", -time.Second))

	username, err := tokens.Lookup(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, username)
}
