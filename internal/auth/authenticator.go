// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/oops"
)

const bearerPrefix = "bearer "

// BearerToken selects the access token for a request. An Authorization
// header with the Bearer scheme (any case) wins; otherwise the access cookie
// is used. ok is false when neither carries a token.
func BearerToken(authorization, cookie string) (token string, ok bool) {
	if len(authorization) >= len(bearerPrefix) && strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(authorization[len(bearerPrefix):]), true
	}
	if cookie != "" {
		return cookie, true
	}
	return "", false
}

// Authenticator resolves request credentials to a user.
type Authenticator struct {
	uows   UnitOfWorkFactory
	codec  *TokenCodec
	policy Policy
	opts   options
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(uows UnitOfWorkFactory, codec *TokenCodec, policy Policy, opts ...Option) (*Authenticator, error) {
	if uows == nil {
		return nil, oops.Code("AUTHENTICATOR_INVALID").Errorf("unit of work factory is required")
	}
	if codec == nil {
		return nil, oops.Code("AUTHENTICATOR_INVALID").Errorf("token codec is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Authenticator{uows: uows, codec: codec, policy: policy, opts: applyOptions(opts)}, nil
}

// ResolveFromBearer authenticates an access token taken from the
// Authorization header value or, failing that, the access cookie value.
// Tokens for deleted users are rejected with ErrUserNotFound.
func (a *Authenticator) ResolveFromBearer(ctx context.Context, authorization, cookie string) (_ UserRead, err error) {
	defer func() { a.opts.recorder.RecordOutcome(MethodBearerResolve, err) }()

	token, ok := BearerToken(authorization, cookie)
	if !ok {
		return UserRead{}, oops.Code(CodeMissingToken).Wrap(ErrMissingToken)
	}

	claims, err := a.codec.Decode(token, TokenTypeAccess, a.opts.now())
	if err != nil {
		return UserRead{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return UserRead{}, err
	}

	uow, release, err := begin(ctx, a.uows)
	if err != nil {
		return UserRead{}, oops.Code("AUTH_RESOLVE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	user, err := uow.Users().GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return UserRead{}, userNotFound(userID)
	}
	if err != nil {
		return UserRead{}, oops.Code("AUTH_RESOLVE_FAILED").With("operation", "get user").Wrap(err)
	}
	return user.Read(), nil
}

// ResolveFromSession authenticates a raw session cookie value.
//
// A session due for extension is extended before the expiry check, so an
// active client keeps a session alive past its original expiry. Expired
// sessions and sessions whose user is gone are deleted before the error
// is returned.
func (a *Authenticator) ResolveFromSession(ctx context.Context, raw string) (_ UserRead, err error) {
	defer func() { a.opts.recorder.RecordOutcome(MethodSessionResolve, err) }()

	if raw == "" {
		return UserRead{}, oops.Code(CodeMissingSessionCookie).Wrap(ErrMissingSessionCookie)
	}

	uow, release, err := begin(ctx, a.uows)
	if err != nil {
		return UserRead{}, oops.Code("AUTH_RESOLVE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	session, err := uow.Sessions().GetByTokenHash(ctx, HashOpaque(raw))
	if errors.Is(err, ErrNotFound) {
		return UserRead{}, oops.Code(CodeSessionNotFound).Wrap(ErrSessionNotFound)
	}
	if err != nil {
		return UserRead{}, oops.Code("AUTH_RESOLVE_FAILED").With("operation", "get session").Wrap(err)
	}

	now := a.opts.now()
	extended := session.DueForExtension(now, a.policy.RollingInterval)
	if extended {
		session.Extend(now, a.policy.ExtendWindow)
		if err := uow.Sessions().UpdateExpiry(ctx, session); err != nil {
			return UserRead{}, oops.Code("AUTH_RESOLVE_FAILED").
				With("operation", "extend session").
				With("session_id", session.ID.String()).
				Wrap(err)
		}
	}

	if session.IsExpiredAt(now) {
		if err := a.discard(ctx, uow, session); err != nil {
			return UserRead{}, err
		}
		return UserRead{}, oops.Code(CodeSessionExpired).
			With("session_id", session.ID.String()).
			With("expired_at", session.ExpiresAt).
			Wrap(ErrSessionExpired)
	}

	user, err := uow.Users().GetByID(ctx, session.UserID)
	if errors.Is(err, ErrNotFound) {
		if err := a.discard(ctx, uow, session); err != nil {
			return UserRead{}, err
		}
		return UserRead{}, userNotFound(session.UserID)
	}
	if err != nil {
		return UserRead{}, oops.Code("AUTH_RESOLVE_FAILED").With("operation", "get user").Wrap(err)
	}

	if extended {
		if err := uow.Commit(ctx); err != nil {
			return UserRead{}, oops.Code("AUTH_RESOLVE_FAILED").With("operation", "commit extension").Wrap(err)
		}
		a.opts.logger.DebugContext(ctx, "session extended",
			"session_id", session.ID.String(),
			"expires_at", session.ExpiresAt)
	}
	return user.Read(), nil
}

// discard deletes a session and commits.
func (a *Authenticator) discard(ctx context.Context, uow UnitOfWork, session *UserSession) error {
	if err := uow.Sessions().Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return oops.Code("AUTH_RESOLVE_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}
