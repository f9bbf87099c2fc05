// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/oops"
)

// dummyPassword is hashed once per checker so unknown names cost the same
// verification time as known ones.
const dummyPassword = "holoauth-timing-equalizer"

// credentialChecker verifies a name/password pair without revealing which
// of the two was wrong.
type credentialChecker struct {
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func newCredentialChecker(hasher PasswordHasher) *credentialChecker {
	return &credentialChecker{hasher: hasher}
}

func (c *credentialChecker) dummy() string {
	c.dummyOnce.Do(func() {
		// On failure dummyHash stays empty and Verify errors, which is still
		// reported as invalid credentials below.
		c.dummyHash, _ = c.hasher.Hash(dummyPassword) //nolint:errcheck // see comment
	})
	return c.dummyHash
}

// check returns the user when name and password match. Unknown name and
// wrong password both yield ErrInvalidCredentials.
func (c *credentialChecker) check(ctx context.Context, users UserRepository, name, password string) (*User, error) {
	user, lookupErr := users.GetByName(ctx, name)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by name").
			Wrap(lookupErr)
	}

	if lookupErr != nil {
		// Always verify to keep response time independent of name existence.
		_, _ = c.hasher.Verify(password, c.dummy()) //nolint:errcheck // result is irrelevant
		return nil, invalidCredentials()
	}

	valid, err := c.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !valid {
		return nil, invalidCredentials()
	}
	return user, nil
}
