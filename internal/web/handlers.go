// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/holomush/holoauth/internal/auth"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionLoginResponse struct {
	User auth.UserRead `json:"user"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

var loggedOut = detailResponse{Detail: "Logged out"}

// decodeBody decodes a JSON body into v.
func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v) //nolint:wrapcheck // mapped by writeDecodeError
}

// decodeOptionalBody is decodeBody for endpoints where the body may be absent.
func decodeOptionalBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if err := decodeBody(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := s.deps.Users.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		writeAuthError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSessionLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, raw, err := s.deps.Sessions.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		writeAuthError(w, r, s.logger, err)
		return
	}
	s.cookies.set(w, s.cfg.Cookies.SessionName, raw, s.cfg.Policy.SessionTTL)
	writeJSON(w, http.StatusOK, sessionLoginResponse{User: user})
}

// handleSessionLogout always clears the cookie, even when the session is
// already gone.
func (s *Server) handleSessionLogout(w http.ResponseWriter, r *http.Request) {
	raw := s.cookies.read(r, s.cfg.Cookies.SessionName)
	if err := s.deps.Sessions.Logout(r.Context(), raw); err != nil {
		writeAuthError(w, r, s.logger, err)
		return
	}
	s.cookies.clear(w, s.cfg.Cookies.SessionName)
	writeJSON(w, http.StatusOK, loggedOut)
}

func (s *Server) handleSessionMe(w http.ResponseWriter, r *http.Request) {
	raw := s.cookies.read(r, s.cfg.Cookies.SessionName)
	user, err := s.deps.Resolver.ResolveFromSession(r.Context(), raw)
	if err != nil {
		writeAuthError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleJWTLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	pair, err := s.deps.Tokens.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		writeAuthError(w, r, s.logger, err)
		return
	}
	s.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

// handleRefresh takes the refresh token from the JSON body, falling back to
// the refresh cookie.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.refreshToken(w, r)
	if !ok {
		return
	}
	if raw == "" {
		writeAuthError(w, r, s.logger, auth.ErrMissingToken)
		return
	}

	pair, err := s.deps.Tokens.Refresh(r.Context(), raw)
	if err != nil {
		writeAuthError(w, r, s.logger, err)
		return
	}
	s.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleJWTLogout(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.refreshToken(w, r)
	if !ok {
		return
	}
	if err := s.deps.Tokens.Logout(r.Context(), raw); err != nil {
		writeAuthError(w, r, s.logger, err)
		return
	}
	s.cookies.clear(w, s.cfg.Cookies.AccessName)
	s.cookies.clear(w, s.cfg.Cookies.RefreshName)
	writeJSON(w, http.StatusOK, loggedOut)
}

func (s *Server) handleJWTMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Resolver.ResolveFromBearer(r.Context(),
		r.Header.Get("Authorization"),
		s.cookies.read(r, s.cfg.Cookies.AccessName))
	if err != nil {
		if statusFor(auth.KindOf(err)) == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeAuthError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// refreshToken reads the presented refresh token. ok is false when a
// response has already been written.
func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) (raw string, ok bool) {
	var req refreshRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return "", false
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, true
	}
	return s.cookies.read(r, s.cfg.Cookies.RefreshName), true
}

func (s *Server) setTokenCookies(w http.ResponseWriter, pair auth.TokenPair) {
	s.cookies.set(w, s.cfg.Cookies.AccessName, pair.AccessToken, s.cfg.Policy.AccessTTL)
	s.cookies.set(w, s.cfg.Cookies.RefreshName, pair.RefreshToken, s.cfg.Policy.RefreshTTL)
}
