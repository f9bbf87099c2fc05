// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
)

type userAddOptions struct {
	passwordStdin bool
	bcryptCost    int
}

// NewUserAddCmd creates the useradd subcommand.
func NewUserAddCmd() *cobra.Command {
	return newUserAddCmd(nil)
}

func newUserAddCmd(deps *UserAddDeps) *cobra.Command {
	if deps == nil {
		deps = &UserAddDeps{}
	}
	deps.applyDefaults()
	opts := &userAddOptions{}

	cmd := &cobra.Command{
		Use:   "useradd NAME",
		Short: "Register a user",
		Long: `Register a user with the same validation as the HTTP API. The password
is prompted for twice on the terminal, or read from the first line of
standard input with --password-stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd.Context(), cmd, args[0], opts, deps)
		},
	}

	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().IntVar(&opts.bcryptCost, "bcrypt-cost", 0, "bcrypt cost (0 = library default)")

	return cmd
}

func runUserAdd(ctx context.Context, cmd *cobra.Command, name string, opts *userAddOptions, deps *UserAddDeps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	password, err := readNewPassword(cmd, opts.passwordStdin, deps.PasswordPrompt)
	if err != nil {
		return err
	}

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	hasher, err := auth.NewBcryptHasher(opts.bcryptCost)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	users, err := auth.NewUserService(deps.UnitOfWorkFactory(pool), hasher)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	user, err := users.Register(ctx, name, password)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	cmd.Printf("created user %s (id %d)\n", user.Name, user.ID)
	return nil
}

func readNewPassword(cmd *cobra.Command, fromStdin bool, prompt func(io.Writer, string) (string, error)) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	first, err := prompt(cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return "", err
	}
	second, err := prompt(cmd.ErrOrStderr(), "Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", oops.Code("PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	return first, nil
}
