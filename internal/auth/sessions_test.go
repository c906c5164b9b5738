// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-fontes/fontes/internal/auth"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

/*
TestCreateSession_StoresOnlyTheHash checks token shape, expiry and that the raw
token never reaches the database.
*/
func TestCreateSession_StoresOnlyTheHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bob := env.createUser(t, "bob", "Secr3t!", sec.RoleUser)

	token, expiresAt, err := env.sessions.CreateSession(ctx, bob.ID, 30, auth.SessionMeta{
		IPAddress: "10.1.2.3",
		UserAgent: "fontes-test",
	})
	require.NoError(t, err)
	assert.Len(t, token, 36)
	assert.True(t, expiresAt.Equal(env.clock.Now().AddDate(0, 0, 30)))

	var stored auth.Session
	require.NoError(t, env.db.GetContext(ctx, &stored, "SELECT * FROM sessions"))
	assert.Equal(t, sec.HashToken(token), stored.TokenHash)
	assert.NotEqual(t, token, stored.TokenHash)
	assert.True(t, stored.IsActive)
	assert.Equal(t, "10.1.2.3", stored.IPAddress)
	assert.Equal(t, "fontes-test", stored.UserAgent)

	other, _, err := env.sessions.CreateSession(ctx, bob.ID, 30, auth.SessionMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	_, _, err = env.sessions.CreateSession(ctx, 9999, 30, auth.SessionMeta{})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

/*
TestValidate_ZeroLifetimeExpiresImmediately moves the session to inactive on
first detection and keeps refusing it afterwards.
*/
func TestValidate_ZeroLifetimeExpiresImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bob := env.createUser(t, "bob", "Secr3t!", sec.RoleUser)

	token, _, err := env.sessions.CreateSession(ctx, bob.ID, 0, auth.SessionMeta{})
	require.NoError(t, err)

	_, err = env.sessions.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrSessionExpired)

	_, err = env.sessions.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrSessionInvalid)
}

/*
TestValidate_AbsoluteExpiry checks that use does not extend a session.
*/
func TestValidate_AbsoluteExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bob := env.createUser(t, "bob", "Secr3t!", sec.RoleUser)

	token, _, err := env.sessions.CreateSession(ctx, bob.ID, 1, auth.SessionMeta{})
	require.NoError(t, err)

	env.clock.Advance(23 * time.Hour)
	_, err = env.sessions.Validate(ctx, token)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	_, err = env.sessions.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}

/*
TestValidate_ReturnsFreshSnapshot reflects profile changes made after login.
*/
func TestValidate_ReturnsFreshSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createUser(t, "root", "rootpass", sec.RoleAdmin)
	bob := env.createUser(t, "bob", "Secr3t!", sec.RoleUser)

	token, _, err := env.sessions.CreateSession(ctx, bob.ID, 30, auth.SessionMeta{})
	require.NoError(t, err)

	_, err = env.credentials.UpdateUser(ctx, bob.ID, auth.UpdateUserInput{
		Username: "robert", FullName: "Robert Smith", Role: sec.RoleAdmin,
	})
	require.NoError(t, err)

	user, err := env.sessions.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "robert", user.Username)
	assert.Equal(t, sec.RoleAdmin, user.Role)
}

/*
TestValidate_UnknownTokens covers tokens that never existed.
*/
func TestValidate_UnknownTokens(t *testing.T) {
	env := newTestEnv(t)

	for _, token := range []string{"", "not-a-token", sec.NewSessionToken()} {
		_, err := env.sessions.Validate(context.Background(), token)
		assert.ErrorIs(t, err, auth.ErrSessionInvalid, token)
	}
}

/*
TestInvalidate_IsIdempotent accepts repeated and unknown tokens.
*/
func TestInvalidate_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bob := env.createUser(t, "bob", "Secr3t!", sec.RoleUser)
	token, _, err := env.sessions.CreateSession(ctx, bob.ID, 30, auth.SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, env.sessions.Invalidate(ctx, token))
	require.NoError(t, env.sessions.Invalidate(ctx, token))
	require.NoError(t, env.sessions.Invalidate(ctx, "unknown"))
	require.NoError(t, env.sessions.Invalidate(ctx, ""))

	_, err = env.sessions.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrSessionInvalid)
}

/*
TestInvalidateAllForUser only touches the given user's sessions.
*/
func TestInvalidateAllForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bob := env.createUser(t, "bob", "Secr3t!", sec.RoleUser)
	carol := env.createUser(t, "carol", "Secr3t!", sec.RoleUser)

	bobToken, _, err := env.sessions.CreateSession(ctx, bob.ID, 30, auth.SessionMeta{})
	require.NoError(t, err)
	carolToken, _, err := env.sessions.CreateSession(ctx, carol.ID, 30, auth.SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, env.sessions.InvalidateAllForUser(ctx, bob.ID))

	_, err = env.sessions.Validate(ctx, bobToken)
	assert.ErrorIs(t, err, auth.ErrSessionInvalid)

	_, err = env.sessions.Validate(ctx, carolToken)
	assert.NoError(t, err)
}

/*
TestOwner resolves active sessions without changing them.
*/
func TestOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bob := env.createUser(t, "bob", "Secr3t!", sec.RoleUser)
	token, _, err := env.sessions.CreateSession(ctx, bob.ID, 0, auth.SessionMeta{})
	require.NoError(t, err)

	owner, err := env.sessions.Owner(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, owner, "expired sessions have no owner")

	live, _, err := env.sessions.CreateSession(ctx, bob.ID, 30, auth.SessionMeta{})
	require.NoError(t, err)

	owner, err = env.sessions.Owner(ctx, live)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, bob.ID, owner.ID)

	owner, err = env.sessions.Owner(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, owner)
}
