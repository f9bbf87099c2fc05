// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/holoauth/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_SESSION_EXPIRED").Wrap(errors.New("session has expired"))
	errutil.AssertErrorCode(t, err, "AUTH_SESSION_EXPIRED")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", int64(7)).Errorf("user not found")
	errutil.AssertErrorContext(t, err, "user_id", int64(7))
}

func TestAssertNoErrorContext_AbsentKeys(t *testing.T) {
	err := oops.Code("AUTH_INVALID_TOKEN").With("reason", "wrong type").Wrap(errors.New("invalid token"))
	errutil.AssertNoErrorContext(t, err, "token", "password")
}
