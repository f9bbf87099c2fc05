// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/auth/authtest"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorded is a Recorder that keeps every outcome.
type recorded struct {
	mu       sync.Mutex
	outcomes []outcome
}

type outcome struct {
	method string
	kind   auth.Kind
	ok     bool
}

func (r *recorded) RecordOutcome(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome{method: method, kind: auth.KindOf(err), ok: err == nil})
}

func (r *recorded) last() outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[len(r.outcomes)-1]
}

type fixture struct {
	store    *authtest.Store
	clock    *testClock
	recorder *recorded
	codec    *auth.TokenCodec
	policy   auth.Policy

	users    *auth.UserService
	sessions *auth.SessionService
	jwts     *auth.JWTService
	authn    *auth.Authenticator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    authtest.NewStore(),
		clock:    newTestClock(),
		recorder: &recorded{},
		codec:    newTestCodec(t),
		policy: auth.Policy{
			AccessTTL:       15 * time.Minute,
			RefreshTTL:      24 * time.Hour,
			SessionTTL:      2 * time.Hour,
			RollingInterval: 10 * time.Minute,
			ExtendWindow:    60 * time.Minute,
		},
	}
	hasher := newTestHasher(t)
	opts := []auth.Option{auth.WithClock(f.clock.Now), auth.WithRecorder(f.recorder)}

	var err error
	f.users, err = auth.NewUserService(f.store, hasher, opts...)
	require.NoError(t, err)
	f.sessions, err = auth.NewSessionService(f.store, hasher, f.policy, opts...)
	require.NoError(t, err)
	f.jwts, err = auth.NewJWTService(f.store, hasher, f.codec, f.policy, opts...)
	require.NoError(t, err)
	f.authn, err = auth.NewAuthenticator(f.store, f.codec, f.policy, opts...)
	require.NoError(t, err)
	return f
}

func (f *fixture) register(t *testing.T, name, password string) auth.UserRead {
	t.Helper()
	user, err := f.users.Register(t.Context(), name, password)
	require.NoError(t, err)
	return user
}
