// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the credential and token lifecycle for holoauth.
//
// # Domain Types
//
//   - User - an account; UserRead is its public view
//   - UserSession - a server-side grant addressed by an opaque cookie token
//   - RefreshToken - a single-use credential exchanged for a new TokenPair
//
// Raw session and refresh tokens are returned to callers exactly once.
// Only HashOpaque of a raw token is ever persisted.
//
// # Primitives
//
//   - PasswordHasher (BcryptHasher) - salted password hashing
//   - TokenCodec - access JWT signing and verification
//   - NewOpaqueToken, HashOpaque - random tokens and their lookup keys
//
// # Services
//
//   - UserService - registration
//   - SessionService - cookie session login and logout
//   - JWTService - token pair login and refresh rotation
//   - Authenticator - resolves bearer tokens and session cookies to a user
//   - Janitor - background removal of expired rows
//
// Every service operation runs in exactly one UnitOfWork obtained from a
// UnitOfWorkFactory. Failures are oops errors wrapping one of the Err*
// sentinels; KindOf classifies them for transport layers.
package auth
