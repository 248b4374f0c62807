// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

// Package roles persists per-subject role assignments. The gateway reads
// them on every authenticated request without token role claims, and the
// admin API writes them.
package roles

import (
	"context"
	"errors"
)

// ErrNotFound is returned by SetRoles/DeleteRoles-adjacent lookups when a
// subject has no stored assignment. GetRoles deliberately does NOT return
// it: an absent assignment reads as an empty role list, so the caller can
// fall through to bootstrap capabilities.
var ErrNotFound = errors.New("roles: subject not found")

// Store is the role persistence contract. Implementations must be safe for
// concurrent use: the gateway reads from request goroutines while the admin
// API writes.
type Store interface {
	// GetRoles returns the stored role names for a subject. A subject
	// with no assignment yields an empty slice and no error.
	GetRoles(ctx context.Context, subject string) ([]string, error)

	// SetRoles replaces the subject's assignment with the given names.
	SetRoles(ctx context.Context, subject string, roleNames []string) error

	// DeleteRoles removes the subject's assignment. Deleting an absent
	// subject returns ErrNotFound.
	DeleteRoles(ctx context.Context, subject string) error

	// List returns every subject with a stored assignment.
	List(ctx context.Context) (map[string][]string, error)

	// Close releases the underlying storage.
	Close() error
}
