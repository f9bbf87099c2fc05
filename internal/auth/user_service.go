// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// UserService manages account registration.
type UserService struct {
	uows   UnitOfWorkFactory
	hasher PasswordHasher
	opts   options
}

// NewUserService creates a UserService.
func NewUserService(uows UnitOfWorkFactory, hasher PasswordHasher, opts ...Option) (*UserService, error) {
	if uows == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("unit of work factory is required")
	}
	if hasher == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("password hasher is required")
	}
	return &UserService{uows: uows, hasher: hasher, opts: applyOptions(opts)}, nil
}

// Register creates an account. The name is trimmed before validation.
// Fails with ErrValidation for a bad name or password and
// ErrUserAlreadyExists when the name is taken.
func (s *UserService) Register(ctx context.Context, name, password string) (_ UserRead, err error) {
	defer func() { s.opts.recorder.RecordOutcome(MethodRegister, err) }()

	name = NormalizeName(name)
	if err := ValidateName(name); err != nil {
		return UserRead{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return UserRead{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return UserRead{}, oops.Code("REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	uow, release, err := begin(ctx, s.uows)
	if err != nil {
		return UserRead{}, oops.Code("REGISTER_FAILED").With("operation", "begin").Wrap(err)
	}
	defer release()

	_, err = uow.Users().GetByName(ctx, name)
	switch {
	case err == nil:
		return UserRead{}, userAlreadyExists(name)
	case !errors.Is(err, ErrNotFound):
		return UserRead{}, oops.Code("REGISTER_FAILED").With("operation", "get user by name").Wrap(err)
	}

	user := &User{Name: name, PasswordHash: hash}
	if err := uow.Users().Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return UserRead{}, userAlreadyExists(name)
		}
		return UserRead{}, oops.Code("REGISTER_FAILED").With("operation", "create user").Wrap(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return UserRead{}, oops.Code("REGISTER_FAILED").With("operation", "commit").Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user.Read(), nil
}

func userAlreadyExists(name string) error {
	return oops.Code(CodeUserAlreadyExists).With("name", name).Wrap(ErrUserAlreadyExists)
}
