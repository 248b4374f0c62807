// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"context"
	"errors"
	"testing"
)

// fakeRoleReader returns canned roles per subject, or an error.
type fakeRoleReader struct {
	roles map[string][]string
	err   error
}

func (f *fakeRoleReader) GetRoles(_ context.Context, subject string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.roles[subject]; ok {
		return r, nil
	}
	return []string{}, nil
}

func TestResolvePrecedence(t *testing.T) {
	authority := NewRoleAuthority([]string{"root"})
	store := &fakeRoleReader{roles: map[string][]string{
		"alice": {"ROLE_ADMIN"},
		"root":  {"ROLE_USER"},
	}}
	resolver := NewIdentityResolver(authority, store)
	ctx := context.Background()

	t.Run("token roles win over stored roles", func(t *testing.T) {
		id := resolver.Resolve(ctx, "alice", []string{"user"})
		if id.Has(CapabilityAdmin) {
			t.Error("stored admin role must not apply when token carries roles")
		}
		if !id.Has(CapabilityUser) {
			t.Error("expected base capability")
		}
	})

	t.Run("stored roles apply without token roles", func(t *testing.T) {
		id := resolver.Resolve(ctx, "alice", nil)
		if !id.Has(CapabilityAdmin) {
			t.Error("expected stored admin role to apply")
		}
	})

	t.Run("stored roles win over bootstrap", func(t *testing.T) {
		// root is allow-listed but has a stored assignment without admin.
		id := resolver.Resolve(ctx, "root", nil)
		if id.Has(CapabilityAdmin) {
			t.Error("stored roles must shadow the allow-list bootstrap")
		}
	})

	t.Run("bootstrap applies without any roles", func(t *testing.T) {
		id := resolver.Resolve(ctx, "bob", nil)
		if id.Has(CapabilityAdmin) {
			t.Error("unknown subject must not get admin")
		}
		if !id.Has(CapabilityUser) {
			t.Error("expected base capability")
		}
	})

	t.Run("bootstrap grants admin to allow-listed subject", func(t *testing.T) {
		empty := NewIdentityResolver(authority, &fakeRoleReader{})
		id := empty.Resolve(ctx, "root", nil)
		if !id.Has(CapabilityAdmin) {
			t.Error("allow-listed subject without stored roles must get admin")
		}
	})
}

func TestResolveStoreFailureDegradesToBootstrap(t *testing.T) {
	authority := NewRoleAuthority([]string{"root"})
	resolver := NewIdentityResolver(authority, &fakeRoleReader{err: errors.New("store down")})
	ctx := context.Background()

	id := resolver.Resolve(ctx, "root", nil)
	if id == nil {
		t.Fatal("store failure must not fail resolution")
	}
	if !id.Has(CapabilityAdmin) {
		t.Error("bootstrap must still apply on store failure")
	}

	id = resolver.Resolve(ctx, "bob", nil)
	if id.Has(CapabilityAdmin) || !id.Has(CapabilityUser) {
		t.Errorf("capabilities = %v, want base only", id.Capabilities.List())
	}
}
