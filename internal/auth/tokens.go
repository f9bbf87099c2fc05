// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Opaque token sizes in random bytes.
const (
	SessionTokenBytes = 32
	RefreshTokenBytes = 48
)

// MinSigningKeyLength is the shortest HMAC key accepted by NewTokenCodec.
const MinSigningKeyLength = 32

// TokenType distinguishes JWT purposes via the "type" claim.
type TokenType string

// Token types.
const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the claim set carried by access tokens.
type Claims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidToken("subject is not a user id")
	}
	return id, nil
}

// TokenCodecConfig configures a TokenCodec.
type TokenCodecConfig struct {
	SigningKey []byte
	// Algorithm is an HMAC JWT algorithm name: HS256, HS384 or HS512.
	Algorithm string
	Issuer    string
}

// TokenCodec signs and verifies JWTs. It is immutable and safe for concurrent use.
type TokenCodec struct {
	key    []byte
	method jwt.SigningMethod
	issuer string
}

// NewTokenCodec validates cfg and returns a codec.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.SigningKey) < MinSigningKeyLength {
		return nil, oops.Code("TOKEN_CODEC_INVALID_KEY").
			With("min_length", MinSigningKeyLength).
			Errorf("signing key must be at least %d bytes", MinSigningKeyLength)
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, oops.Code("TOKEN_CODEC_INVALID_ALGORITHM").
			With("algorithm", cfg.Algorithm).
			Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.Issuer == "" {
		return nil, oops.Code("TOKEN_CODEC_INVALID_ISSUER").Errorf("issuer cannot be empty")
	}
	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)
	return &TokenCodec{key: key, method: method, issuer: cfg.Issuer}, nil
}

// EncodeAccess signs an access token for userID valid from now for ttl.
func (c *TokenCodec) EncodeAccess(userID int64, now time.Time, ttl time.Duration) (string, error) {
	return c.encode(userID, TokenTypeAccess, now, ttl)
}

func (c *TokenCodec) encode(userID int64, typ TokenType, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("type", string(typ)).Wrap(err)
	}
	return signed, nil
}

// Decode verifies the signature, issuer and expiry of token as of now and
// checks that its type claim equals expected. Expiry yields ErrExpiredToken;
// every other failure yields ErrInvalidToken.
func (c *TokenCodec) Decode(token string, expected TokenType, now time.Time) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(CodeExpiredToken).Wrap(ErrExpiredToken)
		}
		return nil, oops.Code(CodeInvalidToken).With("reason", err.Error()).Wrap(ErrInvalidToken)
	}
	if !parsed.Valid {
		return nil, invalidToken("token not valid")
	}
	if claims.Type != expected {
		return nil, oops.Code(CodeInvalidToken).
			With("expected_type", string(expected)).
			With("actual_type", string(claims.Type)).
			Wrap(ErrInvalidToken)
	}
	return claims, nil
}

// NewOpaqueToken returns a URL-safe string encoding n random bytes.
func NewOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", n).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashOpaque returns the hex SHA-256 of an opaque token. Only this value is
// persisted; it is a lookup key, not a secret derivation.
func HashOpaque(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
