package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-server"
)

func TestGuardValidateLiveToken(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t, time.Hour)
	user := registerTestUser(t, stack.users, "alice@example.com")

	token, expiresAt, err := stack.tokens.Generate(user.Principal())
	require.NoError(t, err)
	_, err = stack.sessions.Register(ctx, user.ID, token, expiresAt)
	require.NoError(t, err)

	principal, err := stack.guard.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), principal.ID)
	assert.Equal(t, user.Email, principal.Email)
}

func TestGuardValidateRevokedSession(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t, time.Hour)
	user := registerTestUser(t, stack.users, "alice@example.com")

	token, expiresAt, err := stack.tokens.Generate(user.Principal())
	require.NoError(t, err)
	_, err = stack.sessions.Register(ctx, user.ID, token, expiresAt)
	require.NoError(t, err)

	require.NoError(t, stack.sessions.Revoke(ctx, token))

	// the signature still verifies; only the session check fails
	_, err = stack.tokens.Validate(token)
	require.NoError(t, err)

	_, err = stack.guard.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestGuardValidateExpiredToken(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t, -time.Minute)
	user := registerTestUser(t, stack.users, "alice@example.com")

	token, _, err := stack.tokens.Generate(user.Principal())
	require.NoError(t, err)

	// the session row outlives the embedded expiry until swept; the
	// token must still be rejected
	_, err = stack.sessions.Register(ctx, user.ID, token, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = stack.guard.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestGuardValidateTokenWithoutSession(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(t, time.Hour)
	user := registerTestUser(t, stack.users, "alice@example.com")

	token, _, err := stack.tokens.Generate(user.Principal())
	require.NoError(t, err)

	_, err = stack.guard.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}
