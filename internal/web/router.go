// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllow, "method not allowed")
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)

		r.Post("/login/session", s.handleSessionLogin)
		r.Post("/logout/session", s.handleSessionLogout)
		r.Get("/me/session", s.handleSessionMe)

		r.Post("/login/jwt", s.handleJWTLogin)
		r.Post("/token/refresh", s.handleRefresh)
		r.Post("/logout/jwt", s.handleJWTLogout)
		r.Get("/me/jwt", s.handleJWTMe)
	})

	return r
}
