// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/pkg/errutil"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		cookie        string
		want          string
		ok            bool
	}{
		{"header", "Bearer abc", "", "abc", true},
		{"lowercase scheme", "bearer abc", "", "abc", true},
		{"mixed case scheme", "BeArEr abc", "", "abc", true},
		{"header wins over cookie", "Bearer abc", "cookie", "abc", true},
		{"surrounding space trimmed", "Bearer   abc  ", "", "abc", true},
		{"other scheme falls back to cookie", "Basic dXNlcg==", "cookie", "cookie", true},
		{"cookie only", "", "cookie", "cookie", true},
		{"empty bearer value", "Bearer ", "cookie", "", true},
		{"nothing", "", "", "", false},
		{"other scheme without cookie", "Basic dXNlcg==", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := auth.BearerToken(tt.authorization, tt.cookie)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticator_ResolveFromBearer(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves header token", func(t *testing.T) {
		f := newFixture(t)
		alice := f.register(t, "alice", "password123")
		pair, err := f.jwts.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		user, err := f.authn.ResolveFromBearer(ctx, "Bearer "+pair.AccessToken, "")
		require.NoError(t, err)
		assert.Equal(t, alice, user)
	})

	t.Run("resolves cookie token", func(t *testing.T) {
		f := newFixture(t)
		alice := f.register(t, "alice", "password123")
		pair, err := f.jwts.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		user, err := f.authn.ResolveFromBearer(ctx, "", pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.authn.ResolveFromBearer(ctx, "", "")
		require.ErrorIs(t, err, auth.ErrMissingToken)
		errutil.AssertErrorCode(t, err, auth.CodeMissingToken)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "alice", "password123")
		pair, err := f.jwts.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		f.clock.Advance(f.policy.AccessTTL + time.Second)
		_, err = f.authn.ResolveFromBearer(ctx, "Bearer "+pair.AccessToken, "")
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
		assert.Equal(t, auth.KindExpiredToken, auth.KindOf(err))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "alice", "password123")
		pair, err := f.jwts.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		_, err = f.authn.ResolveFromBearer(ctx, "Bearer "+pair.RefreshToken, "")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("deleted user is rejected until expiry", func(t *testing.T) {
		f := newFixture(t)
		alice := f.register(t, "alice", "password123")
		pair, err := f.jwts.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		f.store.DeleteUser(alice.ID)
		_, err = f.authn.ResolveFromBearer(ctx, "Bearer "+pair.AccessToken, "")
		require.ErrorIs(t, err, auth.ErrUserNotFound)
		errutil.AssertErrorCode(t, err, auth.CodeUserNotFound)
	})

	t.Run("does not commit", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "alice", "password123")
		pair, err := f.jwts.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		before := f.store.Commits()

		_, err = f.authn.ResolveFromBearer(ctx, "Bearer "+pair.AccessToken, "")
		require.NoError(t, err)
		assert.Equal(t, before, f.store.Commits())
	})
}

func TestAuthenticator_ResolveFromSession(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, f *fixture) (auth.UserRead, string) {
		t.Helper()
		f.register(t, "alice", "password123")
		user, raw, err := f.sessions.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		return user, raw
	}

	t.Run("missing cookie", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.authn.ResolveFromSession(ctx, "")
		require.ErrorIs(t, err, auth.ErrMissingSessionCookie)
		errutil.AssertErrorCode(t, err, auth.CodeMissingSessionCookie)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.authn.ResolveFromSession(ctx, "never-issued")
		require.ErrorIs(t, err, auth.ErrSessionNotFound)
		errutil.AssertErrorCode(t, err, auth.CodeSessionNotFound)
	})

	t.Run("fresh session resolves without writes", func(t *testing.T) {
		f := newFixture(t)
		alice, raw := login(t, f)
		before := f.store.Commits()

		f.clock.Advance(time.Minute)
		user, err := f.authn.ResolveFromSession(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, alice, user)
		assert.Equal(t, before, f.store.Commits())
	})

	t.Run("rolling extension after interval", func(t *testing.T) {
		f := newFixture(t)
		_, raw := login(t, f)

		f.clock.Advance(11 * time.Minute)
		_, err := f.authn.ResolveFromSession(ctx, raw)
		require.NoError(t, err)

		session, ok := f.store.SessionByHash(auth.HashOpaque(raw))
		require.True(t, ok)
		assert.Equal(t, f.clock.Now().Add(60*time.Minute), session.ExpiresAt)
		assert.Equal(t, f.clock.Now(), session.LastRefreshedAt)
	})

	t.Run("extension exactly at interval boundary", func(t *testing.T) {
		f := newFixture(t)
		_, raw := login(t, f)

		f.clock.Advance(f.policy.RollingInterval)
		_, err := f.authn.ResolveFromSession(ctx, raw)
		require.NoError(t, err)

		session, ok := f.store.SessionByHash(auth.HashOpaque(raw))
		require.True(t, ok)
		assert.Equal(t, f.clock.Now(), session.LastRefreshedAt)
	})

	t.Run("expired session is deleted", func(t *testing.T) {
		f := newFixture(t)
		alice, _ := login(t, f)

		raw, err := auth.NewOpaqueToken(auth.SessionTokenBytes)
		require.NoError(t, err)
		now := f.clock.Now()
		f.store.PutSession(auth.UserSession{
			ID:              ulid.Make(),
			UserID:          alice.ID,
			TokenHash:       auth.HashOpaque(raw),
			ExpiresAt:       now.Add(-time.Second),
			LastRefreshedAt: now.Add(-time.Minute),
			CreatedAt:       now.Add(-time.Hour),
		})

		_, err = f.authn.ResolveFromSession(ctx, raw)
		require.ErrorIs(t, err, auth.ErrSessionExpired)
		errutil.AssertErrorCode(t, err, auth.CodeSessionExpired)

		_, ok := f.store.SessionByHash(auth.HashOpaque(raw))
		assert.False(t, ok)

		_, err = f.authn.ResolveFromSession(ctx, raw)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	})

	t.Run("overdue session is revived when due for extension", func(t *testing.T) {
		f := newFixture(t)
		alice, _ := login(t, f)

		raw, err := auth.NewOpaqueToken(auth.SessionTokenBytes)
		require.NoError(t, err)
		now := f.clock.Now()
		f.store.PutSession(auth.UserSession{
			ID:              ulid.Make(),
			UserID:          alice.ID,
			TokenHash:       auth.HashOpaque(raw),
			ExpiresAt:       now.Add(-time.Second),
			LastRefreshedAt: now.Add(-f.policy.RollingInterval),
			CreatedAt:       now.Add(-time.Hour),
		})

		user, err := f.authn.ResolveFromSession(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)

		session, ok := f.store.SessionByHash(auth.HashOpaque(raw))
		require.True(t, ok)
		assert.Equal(t, now.Add(f.policy.ExtendWindow), session.ExpiresAt)
	})

	t.Run("session lapses without activity", func(t *testing.T) {
		f := newFixture(t)
		_, raw := login(t, f)

		f.clock.Advance(f.policy.RollingInterval)
		_, err := f.authn.ResolveFromSession(ctx, raw)
		require.NoError(t, err)

		// Pretend the extension happened at the pushed expiry so no further
		// extension is due when the next request arrives.
		session, ok := f.store.SessionByHash(auth.HashOpaque(raw))
		require.True(t, ok)
		session.LastRefreshedAt = session.ExpiresAt
		f.store.PutSession(session)

		f.clock.Advance(f.policy.ExtendWindow)
		_, err = f.authn.ResolveFromSession(ctx, raw)
		assert.ErrorIs(t, err, auth.ErrSessionExpired)
	})

	t.Run("orphaned session is deleted", func(t *testing.T) {
		f := newFixture(t)
		alice, raw := login(t, f)

		f.store.ForgetUser(alice.ID)
		_, err := f.authn.ResolveFromSession(ctx, raw)
		require.ErrorIs(t, err, auth.ErrUserNotFound)

		_, ok := f.store.SessionByHash(auth.HashOpaque(raw))
		assert.False(t, ok)
	})

	t.Run("commit failure while extending", func(t *testing.T) {
		f := newFixture(t)
		_, raw := login(t, f)

		f.clock.Advance(f.policy.RollingInterval)
		f.store.CommitErr = errors.New("disk full")
		_, err := f.authn.ResolveFromSession(ctx, raw)
		require.Error(t, err)
		assert.Equal(t, auth.KindInternal, auth.KindOf(err))
		errutil.AssertErrorCode(t, err, "AUTH_RESOLVE_FAILED")
	})
}
