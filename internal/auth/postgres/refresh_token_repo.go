// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// RefreshTokenRepository implements auth.RefreshTokenRepository.
type RefreshTokenRepository struct {
	q Querier
}

// NewRefreshTokenRepository creates a RefreshTokenRepository issuing statements on q.
func NewRefreshTokenRepository(q Querier) *RefreshTokenRepository {
	return &RefreshTokenRepository{q: q}
}

// Create inserts a refresh token and fills in its ID.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *auth.RefreshToken) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, token.UserID, token.TokenHash, token.ExpiresAt, token.Revoked, token.CreatedAt).Scan(&token.ID)
	if isUniqueViolation(err) {
		return oops.Code("REFRESH_TOKEN_ALREADY_EXISTS").Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("REFRESH_TOKEN_CREATE_FAILED").
			With("operation", "insert refresh_token").
			With("user_id", token.UserID).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a refresh token by its hash.
func (r *RefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var t auth.RefreshToken
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REFRESH_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REFRESH_TOKEN_QUERY_FAILED").
			With("operation", "get refresh token by hash").
			Wrap(err)
	}
	return &t, nil
}

// Delete removes a refresh token by ID. Zero affected rows means another
// transaction deleted it first.
func (r *RefreshTokenRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_DELETE_FAILED").
			With("operation", "delete refresh token").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("REFRESH_TOKEN_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes refresh tokens expiring at or before the given time.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired refresh tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

var _ auth.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
