// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads holoauth settings from a YAML file, HOLOAUTH_
// environment variables and command-line flags, in that order of precedence
// from lowest to highest.
package config

import (
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/holoauth/internal/auth"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "HOLOAUTH_"

// Default values.
const (
	DefaultHTTPAddr       = "127.0.0.1:8000"
	DefaultGRPCAddr       = "127.0.0.1:9000"
	DefaultMetricsAddr    = "127.0.0.1:9100"
	DefaultLogFormat      = "json"
	DefaultAlgorithm      = "HS256"
	DefaultIssuer         = "auth_app"
	DefaultSweepInterval  = time.Hour
	DefaultSessionCookie  = "session_id"
	DefaultAccessCookie   = "access_token"
	DefaultRefreshCookie  = "refresh_token"
	DefaultCookieSecure   = false
	DefaultCookieHTTPOnly = false
)

// DefaultCORSOrigins returns the local development origins allowed by default.
func DefaultCORSOrigins() []string {
	return []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:8000",
		"http://127.0.0.1:8000",
	}
}

// HTTP holds the REST listener settings.
type HTTP struct {
	Addr string `koanf:"addr"`
	// CORSOrigins lists browser origins allowed to call the API with
	// credentials. Empty disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins"`
}

// GRPC holds the gRPC listener settings. An empty address disables it.
// TLS is enabled when both TLSCert and TLSKey are set.
type GRPC struct {
	Addr    string `koanf:"addr"`
	TLSCert string `koanf:"tls_cert"`
	TLSKey  string `koanf:"tls_key"`
}

// Metrics holds the Prometheus and health endpoint settings. An empty
// address disables it.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Log holds logging settings.
type Log struct {
	Format string `koanf:"format"`
}

// JWT holds access token signing settings.
type JWT struct {
	Secret     string        `koanf:"secret"`
	Algorithm  string        `koanf:"algorithm"`
	Issuer     string        `koanf:"issuer"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// Session holds server-side session lifetimes.
type Session struct {
	TTL             time.Duration `koanf:"ttl"`
	RollingInterval time.Duration `koanf:"rolling_interval"`
	ExtendWindow    time.Duration `koanf:"extend_window"`
	// SweepInterval of zero disables the expired-row janitor.
	SweepInterval   time.Duration `koanf:"sweep_interval"`
}

// Cookie holds the names and attributes of the auth cookies.
type Cookie struct {
	SessionName string `koanf:"session_name"`
	AccessName  string `koanf:"access_name"`
	RefreshName string `koanf:"refresh_name"`
	Domain      string `koanf:"domain"`
	Secure      bool   `koanf:"secure"`
	HTTPOnly    bool   `koanf:"http_only"`
}

// Config is the complete holoauth configuration.
type Config struct {
	DatabaseURL string  `koanf:"database_url"`
	HTTP        HTTP    `koanf:"http"`
	GRPC        GRPC    `koanf:"grpc"`
	Metrics     Metrics `koanf:"metrics"`
	Log         Log     `koanf:"log"`
	JWT         JWT     `koanf:"jwt"`
	Session     Session `koanf:"session"`
	Cookie      Cookie  `koanf:"cookie"`
}

// Default returns the configuration used when nothing overrides it.
// JWT.Secret and DatabaseURL have no default.
func Default() Config {
	p := auth.DefaultPolicy()
	return Config{
		HTTP: HTTP{
			Addr: DefaultHTTPAddr,
			CORSOrigins: DefaultCORSOrigins(),
		},
		GRPC:    GRPC{Addr: DefaultGRPCAddr},
		Metrics: Metrics{Addr: DefaultMetricsAddr},
		Log:     Log{Format: DefaultLogFormat},
		JWT: JWT{
			Algorithm:  DefaultAlgorithm,
			Issuer:     DefaultIssuer,
			AccessTTL:  p.AccessTTL,
			RefreshTTL: p.RefreshTTL,
		},
		Session: Session{
			TTL:             p.SessionTTL,
			RollingInterval: p.RollingInterval,
			ExtendWindow:    p.ExtendWindow,
			SweepInterval:   DefaultSweepInterval,
		},
		Cookie: Cookie{
			SessionName: DefaultSessionCookie,
			AccessName:  DefaultAccessCookie,
			RefreshName: DefaultRefreshCookie,
			Secure:      DefaultCookieSecure,
			HTTPOnly:    DefaultCookieHTTPOnly,
		},
	}
}

// Policy returns the token and session lifetimes as an auth.Policy.
func (c Config) Policy() auth.Policy {
	return auth.Policy{
		AccessTTL:       c.JWT.AccessTTL,
		RefreshTTL:      c.JWT.RefreshTTL,
		SessionTTL:      c.Session.TTL,
		RollingInterval: c.Session.RollingInterval,
		ExtendWindow:    c.Session.ExtendWindow,
	}
}

// TokenCodecConfig returns the signing settings for auth.NewTokenCodec.
func (c Config) TokenCodecConfig() auth.TokenCodecConfig {
	return auth.TokenCodecConfig{
		SigningKey: []byte(c.JWT.Secret),
		Algorithm:  c.JWT.Algorithm,
		Issuer:     c.JWT.Issuer,
	}
}

var algorithms = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// Validate checks the settings every server command needs.
func (c Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return invalid("database_url", "database_url is required")
	case len(c.JWT.Secret) < auth.MinSigningKeyLength:
		return invalid("jwt.secret", "jwt.secret must be at least %d bytes", auth.MinSigningKeyLength)
	case !slices.Contains(algorithms, c.JWT.Algorithm):
		return invalid("jwt.algorithm", "jwt.algorithm must be one of %s, got %q",
			strings.Join(algorithms, ", "), c.JWT.Algorithm)
	case c.JWT.Issuer == "":
		return invalid("jwt.issuer", "jwt.issuer is required")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	case c.HTTP.Addr == "":
		return invalid("http.addr", "http.addr is required")
	case c.Cookie.SessionName == "" || c.Cookie.AccessName == "" || c.Cookie.RefreshName == "":
		return invalid("cookie", "cookie names must not be empty")
	case (c.GRPC.TLSCert == "") != (c.GRPC.TLSKey == ""):
		return invalid("grpc.tls_cert", "grpc.tls_cert and grpc.tls_key must be set together")
	case c.Session.SweepInterval < 0:
		return invalid("session.sweep_interval", "session.sweep_interval cannot be negative")
	}
	if err := c.Policy().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
}

// sections are the top-level keys that group nested settings. Environment
// variables name nested keys with a single underscore after the section,
// so HOLOAUTH_JWT_ACCESS_TTL maps to jwt.access_ttl.
var sections = []string{"http", "grpc", "metrics", "log", "jwt", "session", "cookie"}

func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok {
			return s + "." + rest
		}
	}
	return key
}

// listKeys hold comma separated lists when set from the environment.
var listKeys = map[string]bool{"http.cors_origins": true}

func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// Load builds a Config. path may be empty to skip the file layer; flags may
// be nil to skip the flag layer. Flags registered with RegisterFlags only
// override earlier layers when set explicitly.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
	}

	cfg := Default()
	// Slices decode element-wise into existing storage, so start empty.
	cfg.HTTP.CORSOrigins = nil
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	if !k.Exists("http.cors_origins") {
		cfg.HTTP.CORSOrigins = DefaultCORSOrigins()
	}
	return cfg, nil
}
