// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"time"
)

// Method names reported to a Recorder.
const (
	MethodRegister       = "register"
	MethodSessionLogin   = "session_login"
	MethodSessionLogout  = "session_logout"
	MethodSessionResolve = "session_resolve"
	MethodJWTLogin       = "jwt_login"
	MethodRefresh        = "refresh"
	MethodJWTLogout      = "jwt_logout"
	MethodBearerResolve  = "bearer_resolve"
)

// Recorder observes the outcome of every authentication operation.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// RecordOutcome is called once per operation with err == nil on success.
	RecordOutcome(method string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string, error) {}

// Option configures a service.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	now      func() time.Time
	recorder Recorder
}

func applyOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		now:      time.Now,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRecorder sets the outcome recorder. A nil recorder is ignored.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}
