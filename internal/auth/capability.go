// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Capability is a canonical permission token drawn from a fixed, closed set.
// Internal code paths always use these constants; only externally supplied
// role names need runtime validation.
type Capability string

const (
	// CapabilityUser is the base capability every authenticated identity
	// carries.
	CapabilityUser Capability = "ROLE_USER"

	// CapabilityAdmin grants access to administrative paths and role
	// management.
	CapabilityAdmin Capability = "ROLE_ADMIN"
)

// capabilityPrefix is the canonical prefix for role names on the wire.
const capabilityPrefix = "ROLE_"

// supportedCapabilities is the closed set of capabilities the gateway knows.
var supportedCapabilities = map[Capability]struct{}{
	CapabilityUser:  {},
	CapabilityAdmin: {},
}

// ErrUnsupportedRole is returned by strict normalization when a role name
// falls outside the supported set.
var ErrUnsupportedRole = errors.New("unsupported role")

// CapabilitySet is a set of capabilities resolved for one request.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities in sorted order, for stable JSON output
// and logging.
func (s CapabilitySet) List() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// Equal reports whether two sets contain the same capabilities.
func (s CapabilitySet) Equal(other CapabilitySet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

// RoleAuthority normalizes arbitrary role-name strings into the canonical
// capability set and applies the administrator allow-list bootstrap rule.
type RoleAuthority struct {
	adminSubjects map[string]struct{}
}

// NewRoleAuthority creates a RoleAuthority with the given administrator
// allow-list.
func NewRoleAuthority(adminSubjects []string) *RoleAuthority {
	m := make(map[string]struct{}, len(adminSubjects))
	for _, s := range adminSubjects {
		m[s] = struct{}{}
	}
	return &RoleAuthority{adminSubjects: m}
}

// Normalize converts role names into a capability set. Blank entries are
// skipped; names are trimmed, upper-cased and prefixed with the canonical
// prefix when missing. Unsupported names fail with ErrUnsupportedRole under
// strict mode and are silently dropped otherwise. The base capability is
// always present in the result, so normalization is a fixed point:
// normalizing its own output yields the same set.
//
// The lenient mode serves capability resolution from tokens and stored
// roles; the strict mode validates operator input on the administrative
// assignment path.
func (a *RoleAuthority) Normalize(roleNames []string, strict bool) (CapabilitySet, error) {
	set := make(CapabilitySet, len(roleNames)+1)
	for _, name := range roleNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var candidate Capability
		if strings.HasPrefix(name, capabilityPrefix) {
			candidate = Capability(capabilityPrefix + strings.ToUpper(name[len(capabilityPrefix):]))
		} else {
			candidate = Capability(capabilityPrefix + strings.ToUpper(name))
		}

		if _, ok := supportedCapabilities[candidate]; !ok {
			if strict {
				return nil, fmt.Errorf("%w: %q", ErrUnsupportedRole, name)
			}
			continue
		}
		set[candidate] = struct{}{}
	}

	set[CapabilityUser] = struct{}{}
	return set, nil
}

// Bootstrap returns the default capability set for a subject with no
// explicit role assignment: the base capability, plus the administrative
// capability when the subject is on the allow-list.
func (a *RoleAuthority) Bootstrap(subject string) CapabilitySet {
	set := NewCapabilitySet(CapabilityUser)
	if _, ok := a.adminSubjects[subject]; ok {
		set[CapabilityAdmin] = struct{}{}
	}
	return set
}
