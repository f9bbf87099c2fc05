// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// Querier executes statements. Both pgx.Tx and pgxmock satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UnitOfWorkFactory implements auth.UnitOfWorkFactory with one pgx
// transaction per unit of work.
type UnitOfWorkFactory struct {
	db TxBeginner
}

// NewUnitOfWorkFactory creates a UnitOfWorkFactory backed by db.
func NewUnitOfWorkFactory(db TxBeginner) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// Begin starts a transaction and binds fresh repositories to it.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (auth.UnitOfWork, error) {
	tx, err := f.db.Begin(ctx)
	if err != nil {
		return nil, oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	return &UnitOfWork{
		tx:            tx,
		users:         NewUserRepository(tx),
		sessions:      NewSessionRepository(tx),
		refreshTokens: NewRefreshTokenRepository(tx),
	}, nil
}

// UnitOfWork is a single transaction with its bound repositories.
type UnitOfWork struct {
	tx            pgx.Tx
	users         *UserRepository
	sessions      *SessionRepository
	refreshTokens *RefreshTokenRepository
	done          bool
}

// Users returns the user repository bound to this transaction.
func (u *UnitOfWork) Users() auth.UserRepository { return u.users }

// Sessions returns the session repository bound to this transaction.
func (u *UnitOfWork) Sessions() auth.SessionRepository { return u.sessions }

// RefreshTokens returns the refresh token repository bound to this transaction.
func (u *UnitOfWork) RefreshTokens() auth.RefreshTokenRepository { return u.refreshTokens }

// Commit commits the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	u.done = true
	return nil
}

// Rollback aborts the transaction unless it was already committed.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return oops.Code("TX_ROLLBACK_FAILED").Wrap(err)
	}
	return nil
}

var (
	_ auth.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
	_ auth.UnitOfWork        = (*UnitOfWork)(nil)
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
