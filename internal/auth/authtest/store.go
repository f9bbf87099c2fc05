// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authtest provides an in-memory credential store for service tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// state is one consistent copy of all tables.
type state struct {
	users         map[int64]auth.User
	sessions      map[ulid.ULID]auth.UserSession
	refreshTokens map[int64]auth.RefreshToken
	nextUserID    int64
	nextTokenID   int64
}

func newState() *state {
	return &state{
		users:         make(map[int64]auth.User),
		sessions:      make(map[ulid.ULID]auth.UserSession),
		refreshTokens: make(map[int64]auth.RefreshToken),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:         make(map[int64]auth.User, len(s.users)),
		sessions:      make(map[ulid.ULID]auth.UserSession, len(s.sessions)),
		refreshTokens: make(map[int64]auth.RefreshToken, len(s.refreshTokens)),
		nextUserID:    s.nextUserID,
		nextTokenID:   s.nextTokenID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.refreshTokens {
		c.refreshTokens[k] = v
	}
	return c
}

// Store is an in-memory auth.UnitOfWorkFactory. Each unit of work operates
// on a private snapshot that replaces the shared state on Commit, so
// uncommitted changes are never visible to later units of work.
type Store struct {
	mu      sync.Mutex
	current *state

	// BeginErr, when set, is returned by Begin.
	BeginErr error
	// CommitErr, when set, is returned by Commit.
	CommitErr error

	commits int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{current: newState()}
}

var _ auth.UnitOfWorkFactory = (*Store)(nil)

// Begin starts a unit of work over a snapshot of the store.
func (s *Store) Begin(_ context.Context) (auth.UnitOfWork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	return &unitOfWork{store: s, tx: s.current.clone()}, nil
}

// Commits returns how many units of work have committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// AddUser inserts a user directly and returns it with ID and CreatedAt set.
func (s *Store) AddUser(name, passwordHash string, createdAt time.Time) auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.nextUserID++
	u := auth.User{ID: s.current.nextUserID, Name: name, PasswordHash: passwordHash, CreatedAt: createdAt}
	s.current.users[u.ID] = u
	return u
}

// DeleteUser removes a user and, like the database foreign keys, every
// session and refresh token it owns.
func (s *Store) DeleteUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.current.users, id)
	for k, v := range s.current.sessions {
		if v.UserID == id {
			delete(s.current.sessions, k)
		}
	}
	for k, v := range s.current.refreshTokens {
		if v.UserID == id {
			delete(s.current.refreshTokens, k)
		}
	}
}

// ForgetUser removes only the user row, leaving its sessions and refresh
// tokens orphaned.
func (s *Store) ForgetUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.current.users, id)
}

// User returns the committed user with the given name.
func (s *Store) User(name string) (auth.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.current.users {
		if u.Name == name {
			return u, true
		}
	}
	return auth.User{}, false
}

// SessionByHash returns the committed session with the given token hash.
func (s *Store) SessionByHash(hash string) (auth.UserSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.current.sessions {
		if v.TokenHash == hash {
			return v, true
		}
	}
	return auth.UserSession{}, false
}

// PutSession stores or replaces a committed session.
func (s *Store) PutSession(session auth.UserSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.sessions[session.ID] = session
}

// RefreshTokenByHash returns the committed refresh token with the given hash.
func (s *Store) RefreshTokenByHash(hash string) (auth.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.current.refreshTokens {
		if v.TokenHash == hash {
			return v, true
		}
	}
	return auth.RefreshToken{}, false
}

// PutRefreshToken stores or replaces a committed refresh token.
func (s *Store) PutRefreshToken(token auth.RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.refreshTokens[token.ID] = token
}

// Counts returns the number of committed users, sessions and refresh tokens.
func (s *Store) Counts() (users, sessions, refreshTokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current.users), len(s.current.sessions), len(s.current.refreshTokens)
}

type unitOfWork struct {
	store *Store
	tx    *state
	done  bool
}

func (u *unitOfWork) Users() auth.UserRepository                 { return userRepo{u} }
func (u *unitOfWork) Sessions() auth.SessionRepository           { return sessionRepo{u} }
func (u *unitOfWork) RefreshTokens() auth.RefreshTokenRepository { return refreshTokenRepo{u} }

func (u *unitOfWork) Commit(_ context.Context) error {
	if u.done {
		return oops.Code("TX_CLOSED").Errorf("unit of work already finished")
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if u.store.CommitErr != nil {
		return u.store.CommitErr
	}
	u.done = true
	u.store.current = u.tx
	u.store.commits++
	return nil
}

func (u *unitOfWork) Rollback(_ context.Context) error {
	u.done = true
	return nil
}

type userRepo struct{ u *unitOfWork }

func (r userRepo) Create(_ context.Context, user *auth.User) error {
	for _, existing := range r.u.tx.users {
		if existing.Name == user.Name {
			return auth.ErrAlreadyExists
		}
	}
	r.u.tx.nextUserID++
	user.ID = r.u.tx.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.u.tx.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := r.u.tx.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByName(_ context.Context, name string) (*auth.User, error) {
	for _, u := range r.u.tx.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, auth.ErrNotFound
}

type sessionRepo struct{ u *unitOfWork }

func (r sessionRepo) Create(_ context.Context, session *auth.UserSession) error {
	for _, existing := range r.u.tx.sessions {
		if existing.TokenHash == session.TokenHash {
			return auth.ErrAlreadyExists
		}
	}
	r.u.tx.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.UserSession, error) {
	for _, s := range r.u.tx.sessions {
		if s.TokenHash == tokenHash {
			return &s, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r sessionRepo) UpdateExpiry(_ context.Context, session *auth.UserSession) error {
	existing, ok := r.u.tx.sessions[session.ID]
	if !ok {
		return auth.ErrNotFound
	}
	existing.ExpiresAt = session.ExpiresAt
	existing.LastRefreshedAt = session.LastRefreshedAt
	r.u.tx.sessions[session.ID] = existing
	return nil
}

func (r sessionRepo) Delete(_ context.Context, id ulid.ULID) error {
	if _, ok := r.u.tx.sessions[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.u.tx.sessions, id)
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, s := range r.u.tx.sessions {
		if !s.ExpiresAt.After(before) {
			delete(r.u.tx.sessions, id)
			n++
		}
	}
	return n, nil
}

type refreshTokenRepo struct{ u *unitOfWork }

func (r refreshTokenRepo) Create(_ context.Context, token *auth.RefreshToken) error {
	for _, existing := range r.u.tx.refreshTokens {
		if existing.TokenHash == token.TokenHash {
			return auth.ErrAlreadyExists
		}
	}
	r.u.tx.nextTokenID++
	token.ID = r.u.tx.nextTokenID
	r.u.tx.refreshTokens[token.ID] = *token
	return nil
}

func (r refreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.RefreshToken, error) {
	for _, t := range r.u.tx.refreshTokens {
		if t.TokenHash == tokenHash {
			return &t, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r refreshTokenRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.u.tx.refreshTokens[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.u.tx.refreshTokens, id)
	return nil
}

func (r refreshTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, t := range r.u.tx.refreshTokens {
		if !t.ExpiresAt.After(before) {
			delete(r.u.tx.refreshTokens, id)
			n++
		}
	}
	return n, nil
}
