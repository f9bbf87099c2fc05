// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/config"
)

const serviceName = "holoauth"

// NewRootCmd creates the root command for the holoauth CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(NewServeCmd(), NewMigrateCmd(), NewUserAddCmd(), NewVersionCmd())
}

func newRootCmd(subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holoauth",
		Short: "holoauth - session and JWT authentication service",
		Long: `holoauth registers users and authenticates them either with
server-side sessions carried in a cookie or with short-lived JWT access
tokens paired with rotating refresh tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: $XDG_CONFIG_HOME/holoauth/config.yaml if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(subcommands...)

	return cmd
}

// loadConfig layers the --config file, environment and flags of cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, oops.Code("CONFIG_INVALID").With("flag", "config").Wrap(err)
	}
	path, err = config.ResolvePath(path)
	if err != nil {
		return config.Config{}, err //nolint:wrapcheck // already coded
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, oops.With("operation", "load config").Wrap(err)
	}
	return cfg, nil
}

// requireDatabaseURL is the only check administration commands need.
func requireDatabaseURL(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("field", "database_url").
			Errorf("database_url is required (flag --database-url or %sDATABASE_URL)", config.EnvPrefix)
	}
	return nil
}
