// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// RefreshToken is a single-use credential exchanged for a new token pair.
// A revoked token is treated as if it did not exist.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// NewRefreshToken creates a validated RefreshToken issued at now.
// ID is assigned by the repository.
func NewRefreshToken(userID int64, tokenHash string, now, expiresAt time.Time) (*RefreshToken, error) {
	if userID <= 0 {
		return nil, oops.Code("REFRESH_TOKEN_INVALID_USER").With("user_id", userID).Errorf("user ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("REFRESH_TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("REFRESH_TOKEN_INVALID_EXPIRY").Errorf("expiry must be after issue time")
	}
	return &RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// IsExpiredAt reports whether the token is no longer valid at t.
func (r *RefreshToken) IsExpiredAt(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}

// RefreshTokenRepository manages refresh token persistence within a unit of work.
type RefreshTokenRepository interface {
	// Create inserts the token and fills in ID.
	Create(ctx context.Context, token *RefreshToken) error

	// GetByTokenHash returns ErrNotFound if no token has the hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Delete removes a token by ID. Returns ErrNotFound if no row was removed,
	// which happens when a concurrent rotation consumed it first.
	Delete(ctx context.Context, id int64) error

	// DeleteExpired removes tokens expiring at or before the given time and
	// returns the number removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
