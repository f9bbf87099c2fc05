// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Name constraints enforced at registration.
const (
	MinNameLength = 3
	MaxNameLength = 50
)

// nameRegex matches names that start with a letter and contain only
// letters, digits, underscores, hyphens and dots.
var nameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.\-]*$`)

// User is an account that can authenticate.
type User struct {
	ID           int64
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRead is the public view of a User. It never carries the password hash.
type UserRead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Read returns the public view of u.
func (u *User) Read() UserRead {
	return UserRead{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

// NormalizeName trims surrounding whitespace from a user name at
// registration. Login looks names up exactly as given.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName checks a normalized user name.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return validationError("name", "name cannot be empty")
	case n < MinNameLength:
		return validationError("name", "name must be at least %d characters", MinNameLength)
	case n > MaxNameLength:
		return validationError("name", "name must be at most %d characters", MaxNameLength)
	case !nameRegex.MatchString(name):
		return validationError("name", "name must start with a letter and contain only letters, digits, '_', '-' or '.'")
	}
	return nil
}

// ValidatePassword rejects only an empty password. Length is otherwise
// unconstrained since the hasher digests its input first.
func ValidatePassword(password string) error {
	if password == "" {
		return validationError("password", "password cannot be empty")
	}
	return nil
}

// UserRepository manages user persistence within a unit of work.
type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt.
	// Returns ErrAlreadyExists if the name is taken.
	Create(ctx context.Context, user *User) error

	// GetByID returns ErrNotFound if no user has the id.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByName returns ErrNotFound if no user has the name.
	GetByName(ctx context.Context, name string) (*User, error)
}
