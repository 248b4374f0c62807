// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"context"

	"github.com/castellan/castellan/internal/logging"
)

// RoleReader is the read side of the role store queried during resolution.
// Implementations return an empty slice (not an error) when the subject has
// no explicit assignment.
type RoleReader interface {
	GetRoles(ctx context.Context, subject string) ([]string, error)
}

// IdentityResolver combines a validated subject with stored user state and
// the RoleAuthority to produce an effective capability set.
type IdentityResolver struct {
	authority *RoleAuthority
	store     RoleReader
}

// NewIdentityResolver creates a resolver backed by the given role store.
func NewIdentityResolver(authority *RoleAuthority, store RoleReader) *IdentityResolver {
	return &IdentityResolver{
		authority: authority,
		store:     store,
	}
}

// Resolve builds an authenticated identity for a validated subject.
// Precedence, first non-empty source wins:
//
//  1. role claims embedded in the token
//  2. the subject's stored role assignment
//  3. the bootstrap rule (base capability, admin if allow-listed)
//
// A subject with no stored record still authenticates: a valid signature is
// sufficient to trust the subject string for capability purposes. A store
// failure degrades to the bootstrap rule rather than failing the request;
// the identity store is read-mostly and must not take the gateway down.
func (r *IdentityResolver) Resolve(ctx context.Context, subject string, tokenRoles []string) *Identity {
	if len(tokenRoles) > 0 {
		caps, _ := r.authority.Normalize(tokenRoles, false)
		return &Identity{Subject: subject, Capabilities: caps}
	}

	stored, err := r.store.GetRoles(ctx, subject)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("subject", subject).Msg("Role store lookup failed, using bootstrap capabilities")
		stored = nil
	}
	if len(stored) > 0 {
		caps, _ := r.authority.Normalize(stored, false)
		return &Identity{Subject: subject, Capabilities: caps}
	}

	return &Identity{Subject: subject, Capabilities: r.authority.Bootstrap(subject)}
}
