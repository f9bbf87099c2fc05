// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// SessionService provides cookie session login and logout.
type SessionService struct {
	uows        UnitOfWorkFactory
	credentials *credentialChecker
	policy      Policy
	opts        options
}

// NewSessionService creates a SessionService.
func NewSessionService(uows UnitOfWorkFactory, hasher PasswordHasher, policy Policy, opts ...Option) (*SessionService, error) {
	if uows == nil {
		return nil, oops.Code("SESSION_SERVICE_INVALID").Errorf("unit of work factory is required")
	}
	if hasher == nil {
		return nil, oops.Code("SESSION_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &SessionService{
		uows:        uows,
		credentials: newCredentialChecker(hasher),
		policy:      policy,
		opts:        applyOptions(opts),
	}, nil
}

// Login checks credentials and opens a session. The returned raw token is
// the only copy; only its hash is stored.
func (s *SessionService) Login(ctx context.Context, name, password string) (_ UserRead, _ string, err error) {
	defer func() { s.opts.recorder.RecordOutcome(MethodSessionLogin, err) }()

	uow, release, err := begin(ctx, s.uows)
	if err != nil {
		return UserRead{}, "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	user, err := s.credentials.check(ctx, uow.Users(), name, password)
	if err != nil {
		return UserRead{}, "", err
	}

	raw, err := NewOpaqueToken(SessionTokenBytes)
	if err != nil {
		return UserRead{}, "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "generate session token").Wrap(err)
	}

	now := s.opts.now()
	session, err := NewUserSession(user.ID, HashOpaque(raw), now, now.Add(s.policy.SessionTTL))
	if err != nil {
		return UserRead{}, "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "build session").Wrap(err)
	}
	if err := uow.Sessions().Create(ctx, session); err != nil {
		return UserRead{}, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return UserRead{}, "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "commit").Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "session opened",
		"user_id", user.ID,
		"session_id", session.ID.String(),
		"expires_at", session.ExpiresAt)
	return user.Read(), raw, nil
}

// Logout deletes the session identified by raw. An empty token or a token
// with no matching session is not an error.
func (s *SessionService) Logout(ctx context.Context, raw string) (err error) {
	defer func() { s.opts.recorder.RecordOutcome(MethodSessionLogout, err) }()

	if raw == "" {
		return nil
	}

	uow, release, err := begin(ctx, s.uows)
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	session, err := uow.Sessions().GetByTokenHash(ctx, HashOpaque(raw))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "get session by token hash").Wrap(err)
	}

	if err := uow.Sessions().Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "commit").Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "session closed", "user_id", session.UserID, "session_id", session.ID.String())
	return nil
}
