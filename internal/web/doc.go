// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web exposes the authentication services over HTTP.
//
// Session clients authenticate with an opaque session cookie; token clients
// receive an access JWT and a refresh token, both as a JSON body and as
// cookies. Every failure is rendered as
//
//	{"error": {"code": "<kind>", "message": "<text>"}}
//
// with the status chosen from the error kind.
package web
