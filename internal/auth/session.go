// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// UserSession is a server-side login grant addressed by an opaque cookie token.
type UserSession struct {
	ID              ulid.ULID
	UserID          int64
	TokenHash       string
	ExpiresAt       time.Time
	LastRefreshedAt time.Time
	CreatedAt       time.Time
}

// NewUserSession creates a validated UserSession issued at now.
func NewUserSession(userID int64, tokenHash string, now, expiresAt time.Time) (*UserSession, error) {
	if userID <= 0 {
		return nil, oops.Code("SESSION_INVALID_USER").With("user_id", userID).Errorf("user ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry must be after issue time")
	}
	return &UserSession{
		ID:              ulid.Make(),
		UserID:          userID,
		TokenHash:       tokenHash,
		ExpiresAt:       expiresAt,
		LastRefreshedAt: now,
		CreatedAt:       now,
	}, nil
}

// IsExpiredAt reports whether the session is no longer valid at t.
// A session expiring exactly at t is expired.
func (s *UserSession) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// DueForExtension reports whether at least interval has passed since the
// session was last extended.
func (s *UserSession) DueForExtension(now time.Time, interval time.Duration) bool {
	return now.Sub(s.LastRefreshedAt) >= interval
}

// Extend pushes the expiry to now+window and records now as the last extension.
func (s *UserSession) Extend(now time.Time, window time.Duration) {
	s.ExpiresAt = now.Add(window)
	s.LastRefreshedAt = now
}

// SessionRepository manages session persistence within a unit of work.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *UserSession) error

	// GetByTokenHash returns ErrNotFound if no session has the hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*UserSession, error)

	// UpdateExpiry persists ExpiresAt and LastRefreshedAt.
	UpdateExpiry(ctx context.Context, session *UserSession) error

	// Delete removes a session by ID. Returns ErrNotFound if it was already gone.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteExpired removes sessions expiring at or before the given time and
	// returns the number removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
