// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"github.com/spf13/pflag"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"database-url":   "database_url",
	"http-addr":      "http.addr",
	"grpc-addr":      "grpc.addr",
	"metrics-addr":   "metrics.addr",
	"log-format":     "log.format",
	"jwt-issuer":     "jwt.issuer",
	"jwt-algorithm":  "jwt.algorithm",
	"sweep-interval": "session.sweep_interval",
}

// RegisterFlags adds the flags Load understands to fs, with defaults taken
// from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("http-addr", d.HTTP.Addr, "HTTP API listen address")
	fs.String("grpc-addr", d.GRPC.Addr, "gRPC listen address (empty = disabled)")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("jwt-issuer", d.JWT.Issuer, "issuer claim for access tokens")
	fs.String("jwt-algorithm", d.JWT.Algorithm, "HMAC signing algorithm (HS256, HS384, HS512)")
	fs.Duration("sweep-interval", d.Session.SweepInterval, "how often expired sessions and refresh tokens are deleted (0 = never)")
}
