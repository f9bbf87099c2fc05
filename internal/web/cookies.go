// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"
	"time"
)

// CookieSettings names the auth cookies and sets their attributes.
type CookieSettings struct {
	SessionName string
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
	HTTPOnly    bool
}

// cookieJar writes and clears the auth cookies. All cookies use path "/"
// and SameSite=Lax.
type cookieJar struct {
	settings CookieSettings
}

func (j cookieJar) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   j.settings.Domain,
		MaxAge:   maxAge,
		Secure:   j.settings.Secure,
		HttpOnly: j.settings.HTTPOnly,
		SameSite: http.SameSiteLaxMode,
	}
}

func (j cookieJar) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, j.cookie(name, value, int(ttl/time.Second)))
}

// clear expires the named cookie in the browser.
func (j cookieJar) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, j.cookie(name, "", -1))
}

// read returns the value of the named cookie, or "" if absent.
func (j cookieJar) read(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
