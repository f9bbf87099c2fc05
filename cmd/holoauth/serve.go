// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/config"
	holoGRPC "github.com/holomush/holoauth/internal/grpc"
	"github.com/holomush/holoauth/internal/logging"
	"github.com/holomush/holoauth/internal/observability"
	holoTLS "github.com/holomush/holoauth/internal/tls"
	"github.com/holomush/holoauth/internal/web"
	"github.com/holomush/holoauth/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of all listeners.
const shutdownTimeout = 15 * time.Second

type serveOptions struct {
	autoMigrate bool
	bcryptCost  int
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return newServeCmd(nil)
}

func newServeCmd(deps *ServeDeps) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, gRPC and metrics servers",
		Long: `Run the authentication API. The HTTP API is always served; the gRPC
health service and the metrics endpoint are served when their addresses
are set. Expired sessions and refresh tokens are swept periodically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, opts, deps)
		},
	}

	cmd.Flags().BoolVar(&opts.autoMigrate, "auto-migrate", true, "apply pending migrations before serving")
	cmd.Flags().IntVar(&opts.bcryptCost, "bcrypt-cost", 0, "bcrypt cost for new password hashes (0 = library default)")

	return cmd
}

// services bundles everything built from the configuration.
type services struct {
	users    *auth.UserService
	sessions *auth.SessionService
	jwts     *auth.JWTService
	authn    *auth.Authenticator
	janitor  *auth.Janitor
}

func buildServices(cfg config.Config, uows auth.UnitOfWorkFactory, bcryptCost int, opts ...auth.Option) (*services, error) {
	hasher, err := auth.NewBcryptHasher(bcryptCost)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	codec, err := auth.NewTokenCodec(cfg.TokenCodecConfig())
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	policy := cfg.Policy()

	s := &services{}
	if s.users, err = auth.NewUserService(uows, hasher, opts...); err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	if s.sessions, err = auth.NewSessionService(uows, hasher, policy, opts...); err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	if s.jwts, err = auth.NewJWTService(uows, hasher, codec, policy, opts...); err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	if s.authn, err = auth.NewAuthenticator(uows, codec, policy, opts...); err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	if cfg.Session.SweepInterval > 0 {
		if s.janitor, err = auth.NewJanitor(uows, cfg.Session.SweepInterval, opts...); err != nil {
			return nil, err //nolint:wrapcheck // already coded
		}
	}
	return s, nil
}

func webConfig(cfg config.Config) web.Config {
	return web.Config{
		Addr:        cfg.HTTP.Addr,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Cookies: web.CookieSettings{
			SessionName: cfg.Cookie.SessionName,
			AccessName:  cfg.Cookie.AccessName,
			RefreshName: cfg.Cookie.RefreshName,
			Domain:      cfg.Cookie.Domain,
			Secure:      cfg.Cookie.Secure,
			HTTPOnly:    cfg.Cookie.HTTPOnly,
		},
		Policy: cfg.Policy(),
	}
}

// stopper is a started listener.
type stopper interface {
	Stop(ctx context.Context) error
}

// runServeWithDeps runs until ctx is cancelled or a listener fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, opts *serveOptions, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	deps.applyDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate config").Wrap(err)
	}

	logger := logging.Setup(serviceName, version, cfg.Log.Format, deps.LogWriter)
	slog.SetDefault(logger)
	logger.Info("starting holoauth",
		"http_addr", cfg.HTTP.Addr,
		"grpc_addr", cfg.GRPC.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"sweep_interval", cfg.Session.SweepInterval)

	if opts.autoMigrate {
		if err := autoMigrate(cfg.DatabaseURL, deps.MigratorFactory); err != nil {
			return err
		}
	}

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Started listeners, stopped in reverse order.
	var started []stopper
	failed := make(chan error, 3)
	watch := func(errCh <-chan error) {
		go func() {
			for err := range errCh {
				failed <- err
			}
		}()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		for i := len(started) - 1; i >= 0; i-- {
			if err := started[i].Stop(shutdownCtx); err != nil {
				errutil.LogError(logger, "shutdown failed", err)
			}
		}
	}()

	var recorder auth.Recorder
	if cfg.Metrics.Addr != "" {
		obs := observability.NewServer(cfg.Metrics.Addr, pool.Ping)
		errCh, err := obs.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		started = append(started, obs)
		watch(errCh)
		recorder = obs.Metrics()
	}

	svc, err := buildServices(cfg, deps.UnitOfWorkFactory(pool), opts.bcryptCost,
		auth.WithLogger(logger),
		auth.WithRecorder(recorder))
	if err != nil {
		return oops.With("operation", "build services").Wrap(err)
	}

	webSrv, err := web.NewServer(webConfig(cfg), web.Deps{
		Users:    svc.users,
		Sessions: svc.sessions,
		Tokens:   svc.jwts,
		Resolver: svc.authn,
		Logger:   logger,
	})
	if err != nil {
		return oops.With("operation", "create web server").Wrap(err)
	}
	errCh, err := webSrv.Start()
	if err != nil {
		return oops.With("operation", "start web server").Wrap(err)
	}
	started = append(started, webSrv)
	watch(errCh)

	if cfg.GRPC.Addr != "" {
		var grpcOpts []holoGRPC.ServerOption
		if cfg.GRPC.TLSCert != "" {
			tlsCfg, err := holoTLS.LoadServerConfig(cfg.GRPC.TLSCert, cfg.GRPC.TLSKey)
			if err != nil {
				return oops.With("operation", "load grpc tls").Wrap(err)
			}
			grpcOpts = append(grpcOpts, holoGRPC.WithTLS(tlsCfg))
		}
		grpcSrv := holoGRPC.NewServer(svc.authn, grpcOpts...)
		errCh, err := grpcSrv.Start(cfg.GRPC.Addr)
		if err != nil {
			return oops.With("operation", "start grpc server").Wrap(err)
		}
		started = append(started, grpcSrv)
		watch(errCh)
	}

	if svc.janitor != nil {
		svc.janitor.Start(ctx)
		defer svc.janitor.Stop()
	}

	logger.Info("holoauth ready")

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-failed:
		return oops.Code("SERVER_FAILED").Wrap(err)
	}
}

func autoMigrate(databaseURL string, factory func(string) (AutoMigrator, error)) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.With("operation", "auto-migrate").Wrap(err)
	}
	slog.Info("database schema up to date")
	return nil
}
