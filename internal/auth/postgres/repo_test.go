// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/auth/postgres"
	"github.com/holomush/holoauth/pkg/errutil"
)

var (
	createdAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	errConn   = errors.New("connection refused")
	uniqueErr = &pgconn.PgError{Code: pgerrcode.UniqueViolation}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		wantErr   error
		wantCode  string
	}{
		{
			name: "fills id and created_at",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash").
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))
			},
			wantID: 7,
		},
		{
			name: "duplicate name",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash").
					WillReturnError(uniqueErr)
			},
			wantErr:  auth.ErrAlreadyExists,
			wantCode: "USER_ALREADY_EXISTS",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash").
					WillReturnError(errConn)
			},
			wantErr:  errConn,
			wantCode: "USER_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			user := &auth.User{Name: "alice", PasswordHash: "hash"}
			err := postgres.NewUserRepository(mock).Create(context.Background(), user)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
			assert.Equal(t, createdAt, user.CreatedAt)
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	cols := []string{"id", "name", "password_hash", "created_at"}

	t.Run("by id", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT id, name, password_hash, created_at\s+FROM users\s+WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(3), "alice", "hash", createdAt))

		user, err := postgres.NewUserRepository(mock).GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, &auth.User{ID: 3, Name: "alice", PasswordHash: "hash", CreatedAt: createdAt}, user)
	})

	t.Run("by name not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`WHERE name = \$1`).
			WithArgs("nobody").
			WillReturnError(pgx.ErrNoRows)

		_, err := postgres.NewUserRepository(mock).GetByName(context.Background(), "nobody")
		require.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
	})

	t.Run("by id query failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnError(errConn)

		_, err := postgres.NewUserRepository(mock).GetByID(context.Background(), 3)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_QUERY_FAILED")
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	expires := createdAt.Add(2 * time.Hour)
	session := &auth.UserSession{
		ID:              id,
		UserID:          3,
		TokenHash:       "abc",
		ExpiresAt:       expires,
		LastRefreshedAt: createdAt,
		CreatedAt:       createdAt,
	}

	t.Run("create stores the ulid as text", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO user_sessions`).
			WithArgs(id.String(), int64(3), "abc", expires, createdAt, createdAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, postgres.NewSessionRepository(mock).Create(ctx, session))
	})

	t.Run("create with duplicate hash", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO user_sessions`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(uniqueErr)

		err := postgres.NewSessionRepository(mock).Create(ctx, session)
		require.ErrorIs(t, err, auth.ErrAlreadyExists)
	})

	t.Run("get by token hash", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM user_sessions\s+WHERE token_hash = \$1`).
			WithArgs("abc").
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "last_refreshed_at", "created_at"}).
				AddRow(id.String(), int64(3), "abc", expires, createdAt, createdAt))

		got, err := postgres.NewSessionRepository(mock).GetByTokenHash(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, session, got)
	})

	t.Run("get by token hash with corrupt id", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM user_sessions`).
			WithArgs("abc").
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "last_refreshed_at", "created_at"}).
				AddRow("not-a-ulid", int64(3), "abc", expires, createdAt, createdAt))

		_, err := postgres.NewSessionRepository(mock).GetByTokenHash(ctx, "abc")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_GET_BY_TOKEN_FAILED")
	})

	t.Run("get by token hash not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM user_sessions`).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := postgres.NewSessionRepository(mock).GetByTokenHash(ctx, "missing")
		require.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("update expiry of a vanished session", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE user_sessions SET expires_at = \$2, last_refreshed_at = \$3`).
			WithArgs(id.String(), expires, createdAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := postgres.NewSessionRepository(mock).UpdateExpiry(ctx, session)
		require.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM user_sessions WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, postgres.NewSessionRepository(mock).Delete(ctx, id))
	})

	t.Run("delete already gone", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM user_sessions WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := postgres.NewSessionRepository(mock).Delete(ctx, id)
		require.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "SESSION_NOT_FOUND")
	})

	t.Run("delete expired reports count", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM user_sessions WHERE expires_at <= \$1`).
			WithArgs(createdAt).
			WillReturnResult(pgxmock.NewResult("DELETE", 4))

		n, err := postgres.NewSessionRepository(mock).DeleteExpired(ctx, createdAt)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("delete expired failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM user_sessions WHERE expires_at`).
			WithArgs(createdAt).
			WillReturnError(errConn)

		_, err := postgres.NewSessionRepository(mock).DeleteExpired(ctx, createdAt)
		require.ErrorIs(t, err, errConn)
		errutil.AssertErrorCode(t, err, "SESSION_DELETE_EXPIRED_FAILED")
	})
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	expires := createdAt.Add(24 * time.Hour)

	t.Run("create fills id", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`INSERT INTO refresh_tokens`).
			WithArgs(int64(3), "hash", expires, false, createdAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

		token := &auth.RefreshToken{UserID: 3, TokenHash: "hash", ExpiresAt: expires, CreatedAt: createdAt}
		require.NoError(t, postgres.NewRefreshTokenRepository(mock).Create(ctx, token))
		assert.Equal(t, int64(11), token.ID)
	})

	t.Run("get by hash", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM refresh_tokens\s+WHERE token_hash = \$1`).
			WithArgs("hash").
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "revoked", "created_at"}).
				AddRow(int64(11), int64(3), "hash", expires, false, createdAt))

		got, err := postgres.NewRefreshTokenRepository(mock).GetByTokenHash(ctx, "hash")
		require.NoError(t, err)
		assert.Equal(t, int64(11), got.ID)
		assert.Equal(t, expires, got.ExpiresAt)
		assert.False(t, got.Revoked)
	})

	t.Run("get by hash not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM refresh_tokens`).
			WithArgs("hash").
			WillReturnError(pgx.ErrNoRows)

		_, err := postgres.NewRefreshTokenRepository(mock).GetByTokenHash(ctx, "hash")
		require.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "REFRESH_TOKEN_NOT_FOUND")
	})

	t.Run("delete lost to a concurrent consumer", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE id = \$1`).
			WithArgs(int64(11)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := postgres.NewRefreshTokenRepository(mock).Delete(ctx, 11)
		require.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("delete failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE id = \$1`).
			WithArgs(int64(11)).
			WillReturnError(errConn)

		err := postgres.NewRefreshTokenRepository(mock).Delete(ctx, 11)
		require.ErrorIs(t, err, errConn)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "REFRESH_TOKEN_DELETE_FAILED")
	})

	t.Run("delete expired reports count", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at <= \$1`).
			WithArgs(createdAt).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))

		n, err := postgres.NewRefreshTokenRepository(mock).DeleteExpired(ctx, createdAt)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestUnitOfWork(t *testing.T) {
	ctx := context.Background()

	t.Run("begin failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errConn)

		_, err := postgres.NewUnitOfWorkFactory(mock).Begin(ctx)
		require.ErrorIs(t, err, errConn)
		errutil.AssertErrorCode(t, err, "TX_BEGIN_FAILED")
	})

	t.Run("repositories share the transaction and commit", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM user_sessions WHERE expires_at`).
			WithArgs(createdAt).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at`).
			WithArgs(createdAt).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectCommit()

		uow, err := postgres.NewUnitOfWorkFactory(mock).Begin(ctx)
		require.NoError(t, err)

		_, err = uow.Sessions().DeleteExpired(ctx, createdAt)
		require.NoError(t, err)
		_, err = uow.RefreshTokens().DeleteExpired(ctx, createdAt)
		require.NoError(t, err)
		require.NoError(t, uow.Commit(ctx))

		// Rollback after commit does nothing.
		require.NoError(t, uow.Rollback(ctx))
	})

	t.Run("rollback", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		uow, err := postgres.NewUnitOfWorkFactory(mock).Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Rollback(ctx))
		require.NoError(t, uow.Rollback(ctx))
	})

	t.Run("commit failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errConn)
		mock.ExpectRollback()

		uow, err := postgres.NewUnitOfWorkFactory(mock).Begin(ctx)
		require.NoError(t, err)

		err = uow.Commit(ctx)
		require.ErrorIs(t, err, errConn)
		errutil.AssertErrorCode(t, err, "TX_COMMIT_FAILED")
		require.NoError(t, uow.Rollback(ctx))
	})
}
