// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/pkg/errutil"
)

// Error codes for failures raised by this package rather than the services.
const (
	codeBadRequest      = "bad_request"
	codeRequestTooLarge = "request_too_large"
	codeNotFound        = "not_found"
	codeMethodNotAllow  = "method_not_allowed"
	codeInternal        = "internal"
)

const internalMessage = "internal server error"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// kindMessages holds the public message for each client-facing kind.
var kindMessages = map[auth.Kind]string{
	auth.KindInvalidCredentials:   auth.ErrInvalidCredentials.Error(),
	auth.KindUserAlreadyExists:    auth.ErrUserAlreadyExists.Error(),
	auth.KindUserNotFound:         auth.ErrUserNotFound.Error(),
	auth.KindMissingToken:         auth.ErrMissingToken.Error(),
	auth.KindMissingSessionCookie: auth.ErrMissingSessionCookie.Error(),
	auth.KindExpiredToken:         auth.ErrExpiredToken.Error(),
	auth.KindSessionExpired:       auth.ErrSessionExpired.Error(),
	auth.KindSessionNotFound:      auth.ErrSessionNotFound.Error(),
	auth.KindInvalidToken:         auth.ErrInvalidToken.Error(),
	auth.KindRefreshTokenNotFound: auth.ErrRefreshTokenNotFound.Error(),
	auth.KindRefreshTokenExpired:  auth.ErrRefreshTokenExpired.Error(),
	auth.KindValidation:           auth.ErrValidation.Error(),
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindInvalidCredentials,
		auth.KindMissingToken,
		auth.KindMissingSessionCookie,
		auth.KindExpiredToken,
		auth.KindSessionExpired,
		auth.KindSessionNotFound,
		auth.KindInvalidToken,
		auth.KindRefreshTokenNotFound,
		auth.KindRefreshTokenExpired,
		auth.KindUserNotFound:
		return http.StatusUnauthorized
	case auth.KindUserAlreadyExists, auth.KindValidation:
		return http.StatusBadRequest
	case auth.KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // client may disconnect
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeAuthError renders a service error. Internal failures are logged and
// answered with a generic message.
func writeAuthError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := auth.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path)
		writeError(w, status, codeInternal, internalMessage)
		return
	}

	message := kindMessages[kind]
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		message = verr.Message
	}
	logger.DebugContext(r.Context(), "request rejected",
		"kind", kind.String(),
		"code", errutil.Code(err),
		"path", r.URL.Path)
	writeError(w, status, kind.String(), message)
}

// writeDecodeError answers a body that could not be read as JSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, codeRequestTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
}
