// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by repositories when a unique constraint is violated.
var ErrAlreadyExists = errors.New("already exists")

// Authentication outcomes. Each is returned wrapped in an oops error carrying
// the matching code, so callers may use errors.Is or KindOf.
var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrMissingToken         = errors.New("missing access token")
	ErrMissingSessionCookie = errors.New("missing session cookie")
	ErrExpiredToken         = errors.New("token has expired")
	ErrSessionExpired       = errors.New("session has expired")
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidToken         = errors.New("invalid token")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token has expired")
	ErrValidation           = errors.New("validation failed")
)

// Error codes attached to the outcomes above.
const (
	CodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	CodeUserAlreadyExists    = "AUTH_USER_ALREADY_EXISTS"
	CodeUserNotFound         = "AUTH_USER_NOT_FOUND"
	CodeMissingToken         = "AUTH_MISSING_TOKEN"
	CodeMissingSessionCookie = "AUTH_MISSING_SESSION_COOKIE"
	CodeExpiredToken         = "AUTH_EXPIRED_TOKEN"
	CodeSessionExpired       = "AUTH_SESSION_EXPIRED"
	CodeSessionNotFound      = "AUTH_SESSION_NOT_FOUND"
	CodeInvalidToken         = "AUTH_INVALID_TOKEN"
	CodeRefreshTokenNotFound = "AUTH_REFRESH_TOKEN_NOT_FOUND"
	CodeRefreshTokenExpired  = "AUTH_REFRESH_TOKEN_EXPIRED"
	CodeValidation           = "AUTH_VALIDATION_FAILED"
)

// Kind classifies an error returned by this package. The zero value is
// KindInternal, which covers storage and other unexpected failures.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindUserAlreadyExists
	KindUserNotFound
	KindMissingToken
	KindMissingSessionCookie
	KindExpiredToken
	KindSessionExpired
	KindSessionNotFound
	KindInvalidToken
	KindRefreshTokenNotFound
	KindRefreshTokenExpired
	KindValidation
)

var kindNames = map[Kind]string{
	KindInternal:             "internal",
	KindInvalidCredentials:   "invalid_credentials",
	KindUserAlreadyExists:    "user_already_exists",
	KindUserNotFound:         "user_not_found",
	KindMissingToken:         "missing_token",
	KindMissingSessionCookie: "missing_session_cookie",
	KindExpiredToken:         "expired_token",
	KindSessionExpired:       "session_expired",
	KindSessionNotFound:      "session_not_found",
	KindInvalidToken:         "invalid_token",
	KindRefreshTokenNotFound: "refresh_token_not_found",
	KindRefreshTokenExpired:  "refresh_token_expired",
	KindValidation:           "validation",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// kindSentinels is ordered; the first match wins.
var kindSentinels = []struct {
	kind Kind
	err  error
}{
	{KindInvalidCredentials, ErrInvalidCredentials},
	{KindUserAlreadyExists, ErrUserAlreadyExists},
	{KindUserNotFound, ErrUserNotFound},
	{KindMissingToken, ErrMissingToken},
	{KindMissingSessionCookie, ErrMissingSessionCookie},
	{KindExpiredToken, ErrExpiredToken},
	{KindSessionExpired, ErrSessionExpired},
	{KindSessionNotFound, ErrSessionNotFound},
	{KindInvalidToken, ErrInvalidToken},
	{KindRefreshTokenNotFound, ErrRefreshTokenNotFound},
	{KindRefreshTokenExpired, ErrRefreshTokenExpired},
	{KindValidation, ErrValidation},
}

// KindOf reports the kind of err. Nil and unrecognised errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindInternal
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

func userNotFound(userID int64) error {
	return oops.Code(CodeUserNotFound).With("user_id", userID).Wrap(ErrUserNotFound)
}

func invalidToken(reason string) error {
	return oops.Code(CodeInvalidToken).With("reason", reason).Wrap(ErrInvalidToken)
}

// ValidationError describes a rejected input field. Its message is safe to
// show to the caller. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationError(field, format string, args ...any) error {
	return oops.Code(CodeValidation).
		With("field", field).
		Wrap(&ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}
