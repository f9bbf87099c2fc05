// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package grpc serves the gRPC surface of holoauth: the standard health
// service behind bearer-token authentication.
package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health service methods, public by default.
const (
	HealthCheckMethod = "/grpc.health.v1.Health/Check"
	HealthWatchMethod = "/grpc.health.v1.Health/Watch"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	tlsConfig     *tls.Config
	publicMethods []string
	extra         []grpc.ServerOption
}

// WithTLS serves over TLS with the given configuration.
func WithTLS(cfg *tls.Config) ServerOption {
	return func(c *serverConfig) { c.tlsConfig = cfg }
}

// WithPublicMethods replaces the set of methods that skip authentication.
func WithPublicMethods(methods ...string) ServerOption {
	return func(c *serverConfig) { c.publicMethods = methods }
}

// WithServerOptions appends raw grpc server options.
func WithServerOptions(opts ...grpc.ServerOption) ServerOption {
	return func(c *serverConfig) { c.extra = append(c.extra, opts...) }
}

// Server is a grpc.Server with the health service registered and the
// auth interceptor installed.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	listener net.Listener
	running  atomic.Bool
}

// NewServer creates a Server authenticating calls with resolver.
func NewServer(resolver BearerResolver, opts ...ServerOption) *Server {
	cfg := serverConfig{publicMethods: []string{HealthCheckMethod, HealthWatchMethod}}
	for _, opt := range opts {
		opt(&cfg)
	}

	grpcOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryAuthInterceptor(resolver, cfg.publicMethods...)),
	}
	if cfg.tlsConfig != nil {
		grpcOpts = append(grpcOpts, grpc.Creds(credentials.NewTLS(cfg.tlsConfig)))
	}
	grpcOpts = append(grpcOpts, cfg.extra...)

	s := &Server{
		grpc:   grpc.NewServer(grpcOpts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Register exposes the underlying server for additional services.
func (s *Server) Register(desc *grpc.ServiceDesc, impl any) {
	s.grpc.RegisterService(desc, impl)
}

// SetServing sets the overall health status.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
}

// Start listens on addr and serves in the background. The returned channel
// receives a serve error, if any, and is closed when the server stops.
func (s *Server) Start(addr string) (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("grpc server already running")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("GRPC_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}
	s.listener = listener
	s.SetServing(true)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := s.grpc.Serve(listener); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			slog.Error("grpc server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("grpc server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight calls, falling back to a hard stop when ctx ends
// first. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
		<-done
		slog.Warn("grpc server stopped forcefully", "error", ctx.Err())
		return nil
	}
	slog.Info("grpc server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
