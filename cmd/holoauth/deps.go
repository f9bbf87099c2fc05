// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/samber/oops"
	"golang.org/x/term"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/auth/postgres"
	"github.com/holomush/holoauth/internal/store"
)

// Pool is the subset of *pgxpool.Pool the commands use.
type Pool interface {
	postgres.TxBeginner
	Ping(ctx context.Context) error
	Close()
}

// AutoMigrator applies pending migrations at startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// SchemaMigrator is everything the migrate command needs.
type SchemaMigrator interface {
	AutoMigrator
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
}

// CommonDeps are shared by every command that touches the database.
// Nil fields use their default implementations.
type CommonDeps struct {
	// PoolFactory connects to the database.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, url string) (Pool, error)

	// UnitOfWorkFactory builds the auth storage on top of a pool.
	// Default: postgres.NewUnitOfWorkFactory
	UnitOfWorkFactory func(pool Pool) auth.UnitOfWorkFactory
}

func (d *CommonDeps) applyDefaults() {
	if d.PoolFactory == nil {
		d.PoolFactory = func(ctx context.Context, url string) (Pool, error) {
			return store.Connect(ctx, url)
		}
	}
	if d.UnitOfWorkFactory == nil {
		d.UnitOfWorkFactory = func(pool Pool) auth.UnitOfWorkFactory {
			return postgres.NewUnitOfWorkFactory(pool)
		}
	}
}

// ServeDeps contains injectable dependencies for the serve command.
type ServeDeps struct {
	CommonDeps

	// MigratorFactory creates the startup migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (AutoMigrator, error)

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer
}

func (d *ServeDeps) applyDefaults() {
	d.CommonDeps.applyDefaults()
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (AutoMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if d.LogWriter == nil {
		d.LogWriter = os.Stderr
	}
}

// MigrateDeps contains injectable dependencies for the migrate command.
type MigrateDeps struct {
	// MigratorFactory creates the migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (SchemaMigrator, error)
}

func (d *MigrateDeps) applyDefaults() {
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (SchemaMigrator, error) {
			return store.NewMigrator(url)
		}
	}
}

// UserAddDeps contains injectable dependencies for the useradd command.
type UserAddDeps struct {
	CommonDeps

	// PasswordPrompt reads a password without echo.
	// Default: promptPassword
	PasswordPrompt func(w io.Writer, prompt string) (string, error)
}

func (d *UserAddDeps) applyDefaults() {
	d.CommonDeps.applyDefaults()
	if d.PasswordPrompt == nil {
		d.PasswordPrompt = promptPassword
	}
}

// readPassword is a seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptPassword writes prompt to w and reads a password from the terminal
// on stdin without echo.
func promptPassword(w io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return "", oops.Code("PASSWORD_PROMPT_FAILED").Errorf("stdin is not a terminal; use --password-stdin")
	}
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", oops.Code("PASSWORD_PROMPT_FAILED").Wrap(err)
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w) //nolint:errcheck // cosmetic newline after hidden input
	if err != nil {
		return "", oops.Code("PASSWORD_PROMPT_FAILED").Wrap(err)
	}
	return string(pw), nil
}
