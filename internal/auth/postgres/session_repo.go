// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// SessionRepository implements auth.SessionRepository.
type SessionRepository struct {
	q Querier
}

// NewSessionRepository creates a SessionRepository issuing statements on q.
func NewSessionRepository(q Querier) *SessionRepository {
	return &SessionRepository{q: q}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.UserSession) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, token_hash, expires_at, last_refreshed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		session.ID.String(),
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		session.LastRefreshedAt,
		session.CreatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("SESSION_ALREADY_EXISTS").Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert user_session").
			With("user_id", session.UserID).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.UserSession, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, last_refreshed_at, created_at
		FROM user_sessions
		WHERE token_hash = $1
	`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return session, nil
}

// UpdateExpiry persists the rolling extension fields of a session.
func (r *SessionRepository) UpdateExpiry(ctx context.Context, session *auth.UserSession) error {
	result, err := r.q.Exec(ctx, `
		UPDATE user_sessions SET expires_at = $2, last_refreshed_at = $3
		WHERE id = $1
	`, session.ID.String(), session.ExpiresAt, session.LastRefreshedAt)
	if err != nil {
		return oops.Code("SESSION_UPDATE_EXPIRY_FAILED").
			With("operation", "update expires_at").
			With("id", session.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("id", session.ID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes sessions expiring at or before the given time.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*auth.UserSession, error) {
	var (
		s     auth.UserSession
		idStr string
	)
	if err := row.Scan(&idStr, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.LastRefreshedAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse session id").With("id", idStr).Wrap(err)
	}
	s.ID = id
	return &s, nil
}

var _ auth.SessionRepository = (*SessionRepository)(nil)
