// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

// Package authz enforces path-level access control over the security
// decision established by the authentication gateway, and serves the admin
// role management API.
package authz

import (
	"net/http"
	"strings"

	"github.com/castellan/castellan/internal/auth"
)

// Requirement is what a matched rule demands of the caller.
type Requirement int

const (
	// PermitAll admits any caller, authenticated or not.
	PermitAll Requirement = iota

	// RequireAuthenticated admits any non-anonymous caller.
	RequireAuthenticated

	// RequireCapability admits only callers holding the rule's capability.
	RequireCapability
)

// String returns the requirement label used in logs and metrics.
func (q Requirement) String() string {
	switch q {
	case PermitAll:
		return "permit_all"
	case RequireAuthenticated:
		return "require_authenticated"
	case RequireCapability:
		return "require_capability"
	default:
		return "unknown"
	}
}

// Rule is one entry of the access table. Method is optional: empty matches
// every HTTP method. Pattern is an exact path, or a prefix when it ends in
// "/*".
type Rule struct {
	Method      string
	Pattern     string
	Requirement Requirement
	Capability  auth.Capability
}

// matches reports whether the rule covers the given request line.
func (ru Rule) matches(method, path string) bool {
	if ru.Method != "" && ru.Method != method {
		return false
	}
	if prefix, ok := strings.CutSuffix(ru.Pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == ru.Pattern
}

// Table is an ordered access rule list. Evaluation is strict first-match:
// the first rule covering the request wins and later rules are never
// consulted, so specific rules must precede broad ones. A request no rule
// covers falls back to RequireAuthenticated; the absence of a rule never
// grants access.
type Table struct {
	rules []Rule
}

// NewTable builds a table from rules in evaluation order.
func NewTable(rules []Rule) *Table {
	return &Table{rules: rules}
}

// Lookup returns the requirement for a request line.
func (t *Table) Lookup(method, path string) Rule {
	for _, ru := range t.rules {
		if ru.matches(method, path) {
			return ru
		}
	}
	return Rule{Requirement: RequireAuthenticated}
}

// DefaultRules returns the gateway's access table. Order matters: public
// endpoints and the admin tree are pinned before the catch-all default.
func DefaultRules() []Rule {
	return []Rule{
		// Public surface: liveness, metrics scraping, docs, login flow.
		{Pattern: "/health/*", Requirement: PermitAll},
		{Pattern: "/metrics", Requirement: PermitAll},
		{Pattern: "/docs/*", Requirement: PermitAll},
		{Pattern: "/api/v1/ws", Requirement: PermitAll},
		{Method: http.MethodPost, Pattern: "/api/v1/auth/login", Requirement: PermitAll},
		{Method: http.MethodPost, Pattern: "/api/v1/auth/register", Requirement: PermitAll},

		// Admin tree.
		{Pattern: "/api/v1/admin/*", Requirement: RequireCapability, Capability: auth.CapabilityAdmin},
		{Method: http.MethodDelete, Pattern: "/api/v1/users/*", Requirement: RequireCapability, Capability: auth.CapabilityAdmin},
	}
}
