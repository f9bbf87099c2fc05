// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/auth"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	user := env.register(t, "  alice ", "password123")
	assert.Equal(t, "alice", user.Name)
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("response never carries the hash", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodPost, path: "/auth/register", body: credentials("bob", "password123")})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("duplicate name", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodPost, path: "/auth/register", body: credentials("alice", "password123")})
		assertError(t, rec, http.StatusBadRequest, "user_already_exists")
	})

	t.Run("validation message is shown", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodPost, path: "/auth/register", body: credentials("al", "password123")})
		body := assertError(t, rec, http.StatusBadRequest, "validation")
		assert.Equal(t, "name must be at least 3 characters", body.Error.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodPost, path: "/auth/register", body: "{not json"})
		assertError(t, rec, http.StatusBadRequest, "bad_request")
	})
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice", "password123")

	rec := env.do(t, request{method: http.MethodPost, path: "/auth/login/session", body: credentials("alice", "password123")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[struct {
		User auth.UserRead `json:"user"`
	}](t, rec)
	assert.Equal(t, registered.ID, login.User.ID)

	session := cookieNamed(rec, "session_id")
	require.NotNil(t, session)
	assert.NotEmpty(t, session.Value)
	assert.Equal(t, "/", session.Path)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, int(testPolicy.SessionTTL.Seconds()), session.MaxAge)
	assert.False(t, session.HttpOnly)

	_, stored, _ := env.store.Counts()
	assert.Equal(t, 1, stored)

	rec = env.do(t, request{method: http.MethodGet, path: "/auth/me/session", cookies: []*http.Cookie{session}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "alice", decode[auth.UserRead](t, rec).Name)

	rec = env.do(t, request{method: http.MethodPost, path: "/auth/logout/session", cookies: []*http.Cookie{session}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detail":"Logged out"}`, rec.Body.String())
	cleared := cookieNamed(rec, "session_id")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	_, stored, _ = env.store.Counts()
	assert.Zero(t, stored)

	rec = env.do(t, request{method: http.MethodGet, path: "/auth/me/session", cookies: []*http.Cookie{session}})
	assertError(t, rec, http.StatusUnauthorized, "session_not_found")
}

func TestSessionLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "password123")

	for _, creds := range []map[string]string{
		credentials("alice", "wrong-password"),
		credentials("nobody", "password123"),
	} {
		rec := env.do(t, request{method: http.MethodPost, path: "/auth/login/session", body: creds})
		body := assertError(t, rec, http.StatusUnauthorized, "invalid_credentials")
		assert.Equal(t, "invalid username or password", body.Error.Message)
		assert.Nil(t, cookieNamed(rec, "session_id"))
	}
}

func TestSessionMe_MissingCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, request{method: http.MethodGet, path: "/auth/me/session"})
	assertError(t, rec, http.StatusUnauthorized, "missing_session_cookie")
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestSessionLogout_WithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, request{method: http.MethodPost, path: "/auth/logout/session"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detail":"Logged out"}`, rec.Body.String())
}

func jwtLogin(t *testing.T, env *testEnv) (auth.TokenPair, *http.Cookie, *http.Cookie) {
	t.Helper()
	rec := env.do(t, request{method: http.MethodPost, path: "/auth/login/jwt", body: credentials("alice", "password123")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decode[auth.TokenPair](t, rec)
	access := cookieNamed(rec, "access_token")
	refresh := cookieNamed(rec, "refresh_token")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return pair, access, refresh
}

func TestJWTLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "password123")

	pair, access, refresh := jwtLogin(t, env)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, pair.AccessToken, access.Value)
	assert.Equal(t, pair.RefreshToken, refresh.Value)
	assert.Equal(t, int(testPolicy.AccessTTL.Seconds()), access.MaxAge)
	assert.Equal(t, int(testPolicy.RefreshTTL.Seconds()), refresh.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
}

func TestJWTMe(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "password123")
	pair, access, _ := jwtLogin(t, env)

	t.Run("authorization header", func(t *testing.T) {
		rec := env.do(t, request{
			method: http.MethodGet,
			path:   "/auth/me/jwt",
			header: http.Header{"Authorization": {"Bearer " + pair.AccessToken}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "alice", decode[auth.UserRead](t, rec).Name)
	})

	t.Run("access cookie", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodGet, path: "/auth/me/jwt", cookies: []*http.Cookie{access}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("no credentials", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodGet, path: "/auth/me/jwt"})
		assertError(t, rec, http.StatusUnauthorized, "missing_token")
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		rec := env.do(t, request{
			method: http.MethodGet,
			path:   "/auth/me/jwt",
			header: http.Header{"Authorization": {"Bearer " + pair.RefreshToken}},
		})
		assertError(t, rec, http.StatusUnauthorized, "invalid_token")
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "password123")

	t.Run("body token rotates", func(t *testing.T) {
		pair, _, _ := jwtLogin(t, env)

		rec := env.do(t, request{
			method: http.MethodPost,
			path:   "/auth/token/refresh",
			body:   map[string]string{"refresh_token": pair.RefreshToken},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		next := decode[auth.TokenPair](t, rec)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
		assert.Equal(t, next.RefreshToken, cookieNamed(rec, "refresh_token").Value)

		replay := env.do(t, request{
			method: http.MethodPost,
			path:   "/auth/token/refresh",
			body:   map[string]string{"refresh_token": pair.RefreshToken},
		})
		assertError(t, replay, http.StatusUnauthorized, "refresh_token_not_found")
	})

	t.Run("cookie token", func(t *testing.T) {
		_, _, refresh := jwtLogin(t, env)

		rec := env.do(t, request{method: http.MethodPost, path: "/auth/token/refresh", cookies: []*http.Cookie{refresh}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodPost, path: "/auth/token/refresh"})
		assertError(t, rec, http.StatusUnauthorized, "missing_token")
	})

	t.Run("unknown token", func(t *testing.T) {
		rec := env.do(t, request{
			method: http.MethodPost,
			path:   "/auth/token/refresh",
			body:   map[string]string{"refresh_token": "not-a-real-token"},
		})
		assertError(t, rec, http.StatusUnauthorized, "refresh_token_not_found")
	})
}

func TestJWTLogout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "password123")
	_, _, refresh := jwtLogin(t, env)

	rec := env.do(t, request{method: http.MethodPost, path: "/auth/logout/jwt", cookies: []*http.Cookie{refresh}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"detail":"Logged out"}`, rec.Body.String())
	for _, name := range []string{"access_token", "refresh_token"} {
		c := cookieNamed(rec, name)
		require.NotNil(t, c, name)
		assert.Negative(t, c.MaxAge, name)
	}

	_, _, tokens := env.store.Counts()
	assert.Zero(t, tokens)

	rec = env.do(t, request{method: http.MethodPost, path: "/auth/token/refresh", cookies: []*http.Cookie{refresh}})
	assertError(t, rec, http.StatusUnauthorized, "refresh_token_not_found")

	t.Run("without a token", func(t *testing.T) {
		rec := env.do(t, request{method: http.MethodPost, path: "/auth/logout/jwt"})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
