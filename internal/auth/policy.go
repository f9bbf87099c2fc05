// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"

	"github.com/samber/oops"
)

// Policy holds the lifetimes applied to issued credentials.
type Policy struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SessionTTL time.Duration
	// RollingInterval is the minimum time between two extensions of a session.
	RollingInterval time.Duration
	// ExtendWindow is how far past the current time an extension pushes expiry.
	ExtendWindow time.Duration
}

// DefaultPolicy returns the lifetimes used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		AccessTTL:       15 * time.Minute,
		RefreshTTL:      7 * 24 * time.Hour,
		SessionTTL:      7 * 24 * time.Hour,
		RollingInterval: 10 * time.Minute,
		ExtendWindow:    60 * time.Minute,
	}
}

// Validate checks that every duration is usable.
func (p Policy) Validate() error {
	checks := []struct {
		name string
		d    time.Duration
	}{
		{"access_ttl", p.AccessTTL},
		{"refresh_ttl", p.RefreshTTL},
		{"session_ttl", p.SessionTTL},
		{"extend_window", p.ExtendWindow},
	}
	for _, c := range checks {
		if c.d <= 0 {
			return oops.Code("POLICY_INVALID").With("field", c.name).Errorf("%s must be positive", c.name)
		}
	}
	if p.RollingInterval < 0 {
		return oops.Code("POLICY_INVALID").With("field", "rolling_interval").Errorf("rolling_interval cannot be negative")
	}
	return nil
}
