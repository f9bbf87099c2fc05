// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, name, password string) (auth.UserRead, error)
}

// SessionAuth logs users in and out with server-side sessions.
type SessionAuth interface {
	Login(ctx context.Context, name, password string) (auth.UserRead, string, error)
	Logout(ctx context.Context, raw string) error
}

// TokenAuth issues, rotates and revokes token pairs.
type TokenAuth interface {
	Login(ctx context.Context, name, password string) (auth.TokenPair, error)
	Refresh(ctx context.Context, raw string) (auth.TokenPair, error)
	Logout(ctx context.Context, raw string) error
}

// Resolver maps request credentials to a user.
type Resolver interface {
	ResolveFromBearer(ctx context.Context, authorization, cookie string) (auth.UserRead, error)
	ResolveFromSession(ctx context.Context, raw string) (auth.UserRead, error)
}

// Config configures the HTTP server.
type Config struct {
	Addr        string
	CORSOrigins []string
	Cookies     CookieSettings
	// Policy supplies cookie lifetimes.
	Policy auth.Policy
}

// Deps are the services behind the routes. All are required.
type Deps struct {
	Users    Registrar
	Sessions SessionAuth
	Tokens   TokenAuth
	Resolver Resolver
	Logger   *slog.Logger
}

// Server is the HTTP front end of the auth services.
type Server struct {
	cfg     Config
	deps    Deps
	logger  *slog.Logger
	cookies cookieJar
	handler http.Handler

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer validates deps and builds the router.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Users == nil:
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("user service is required")
	case deps.Sessions == nil:
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("session service is required")
	case deps.Tokens == nil:
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("token service is required")
	case deps.Resolver == nil:
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("resolver is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		cookies: cookieJar{settings: cfg.Cookies},
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens and serves in the background. The returned channel receives
// a serve error, if any, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("WEB_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_web_server").Wrap(err)
	}
	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
