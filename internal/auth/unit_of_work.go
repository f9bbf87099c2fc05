// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "context"

// UnitOfWork binds the repositories used by one operation to a single
// transaction. Changes are discarded unless Commit is called.
type UnitOfWork interface {
	Users() UserRepository
	Sessions() SessionRepository
	RefreshTokens() RefreshTokenRepository

	// Commit makes all changes visible. A unit of work cannot be reused after Commit.
	Commit(ctx context.Context) error

	// Rollback discards uncommitted changes. Calling it after Commit is a no-op.
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory starts units of work.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// begin starts a unit of work and returns a release func that rolls back
// anything left uncommitted. Callers defer release.
func begin(ctx context.Context, f UnitOfWorkFactory) (UnitOfWork, func(), error) {
	uow, err := f.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		_ = uow.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op
	}
	return uow, release, nil
}
