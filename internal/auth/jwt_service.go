// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// TokenTypeBearer is the token_type reported with every TokenPair.
const TokenTypeBearer = "bearer"

// TokenPair is an access JWT and its companion raw refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// JWTService issues and rotates access/refresh token pairs.
type JWTService struct {
	uows        UnitOfWorkFactory
	codec       *TokenCodec
	credentials *credentialChecker
	policy      Policy
	opts        options
}

// NewJWTService creates a JWTService.
func NewJWTService(uows UnitOfWorkFactory, hasher PasswordHasher, codec *TokenCodec, policy Policy, opts ...Option) (*JWTService, error) {
	if uows == nil {
		return nil, oops.Code("JWT_SERVICE_INVALID").Errorf("unit of work factory is required")
	}
	if hasher == nil {
		return nil, oops.Code("JWT_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if codec == nil {
		return nil, oops.Code("JWT_SERVICE_INVALID").Errorf("token codec is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &JWTService{
		uows:        uows,
		codec:       codec,
		credentials: newCredentialChecker(hasher),
		policy:      policy,
		opts:        applyOptions(opts),
	}, nil
}

// Login checks credentials and issues a new token pair.
func (s *JWTService) Login(ctx context.Context, name, password string) (_ TokenPair, err error) {
	defer func() { s.opts.recorder.RecordOutcome(MethodJWTLogin, err) }()

	uow, release, err := begin(ctx, s.uows)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_LOGIN_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	user, err := s.credentials.check(ctx, uow.Users(), name, password)
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := s.issue(ctx, uow, user.ID, s.opts.now())
	if err != nil {
		return TokenPair{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return TokenPair{}, oops.Code("AUTH_LOGIN_FAILED").With("operation", "commit").Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "token pair issued", "user_id", user.ID)
	return pair, nil
}

// Refresh consumes a raw refresh token and issues a replacement pair.
// Each refresh token works once; a replayed token fails with
// ErrRefreshTokenNotFound.
func (s *JWTService) Refresh(ctx context.Context, raw string) (_ TokenPair, err error) {
	defer func() { s.opts.recorder.RecordOutcome(MethodRefresh, err) }()

	uow, release, err := begin(ctx, s.uows)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	stored, err := uow.RefreshTokens().GetByTokenHash(ctx, HashOpaque(raw))
	if errors.Is(err, ErrNotFound) {
		return TokenPair{}, refreshTokenNotFound()
	}
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").With("operation", "get refresh token").Wrap(err)
	}
	if stored.Revoked {
		return TokenPair{}, refreshTokenNotFound()
	}

	now := s.opts.now()
	if stored.IsExpiredAt(now) {
		if err := uow.RefreshTokens().Delete(ctx, stored.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").With("operation", "delete expired refresh token").Wrap(err)
		}
		if err := uow.Commit(ctx); err != nil {
			return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").With("operation", "commit").Wrap(err)
		}
		return TokenPair{}, oops.Code(CodeRefreshTokenExpired).
			With("user_id", stored.UserID).
			With("expired_at", stored.ExpiresAt).
			Wrap(ErrRefreshTokenExpired)
	}

	user, err := uow.Users().GetByID(ctx, stored.UserID)
	if errors.Is(err, ErrNotFound) {
		return TokenPair{}, userNotFound(stored.UserID)
	}
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").With("operation", "get user").Wrap(err)
	}

	// Zero rows deleted means a concurrent refresh consumed this token first.
	if err := uow.RefreshTokens().Delete(ctx, stored.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.opts.logger.WarnContext(ctx, "refresh token replayed concurrently", "user_id", user.ID)
			return TokenPair{}, refreshTokenNotFound()
		}
		return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").With("operation", "delete refresh token").Wrap(err)
	}

	pair, err := s.issue(ctx, uow, user.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").With("operation", "commit").Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "token pair rotated", "user_id", user.ID)
	return pair, nil
}

// Logout deletes the refresh token identified by raw so it can no longer be
// rotated. Access tokens already issued stay valid until they expire. An
// empty or unknown token is not an error.
func (s *JWTService) Logout(ctx context.Context, raw string) (err error) {
	defer func() { s.opts.recorder.RecordOutcome(MethodJWTLogout, err) }()

	if raw == "" {
		return nil
	}

	uow, release, err := begin(ctx, s.uows)
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	stored, err := uow.RefreshTokens().GetByTokenHash(ctx, HashOpaque(raw))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "get refresh token").Wrap(err)
	}
	if err := uow.RefreshTokens().Delete(ctx, stored.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "delete refresh token").Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "commit").Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "refresh token revoked", "user_id", stored.UserID)
	return nil
}

// issue mints an access token and persists a new refresh token in uow.
func (s *JWTService) issue(ctx context.Context, uow UnitOfWork, userID int64, now time.Time) (TokenPair, error) {
	access, err := s.codec.EncodeAccess(userID, now, s.policy.AccessTTL)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_ISSUE_FAILED").With("operation", "encode access token").Wrap(err)
	}

	raw, err := NewOpaqueToken(RefreshTokenBytes)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_ISSUE_FAILED").With("operation", "generate refresh token").Wrap(err)
	}
	token, err := NewRefreshToken(userID, HashOpaque(raw), now, now.Add(s.policy.RefreshTTL))
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_ISSUE_FAILED").With("operation", "build refresh token").Wrap(err)
	}
	if err := uow.RefreshTokens().Create(ctx, token); err != nil {
		return TokenPair{}, oops.Code("AUTH_ISSUE_FAILED").With("operation", "persist refresh token").Wrap(err)
	}

	return TokenPair{AccessToken: access, RefreshToken: raw, TokenType: TokenTypeBearer}, nil
}

func refreshTokenNotFound() error {
	return oops.Code(CodeRefreshTokenNotFound).Wrap(ErrRefreshTokenNotFound)
}
