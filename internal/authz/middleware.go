// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package authz

import (
	"net/http"

	"github.com/castellan/castellan/internal/audit"
	"github.com/castellan/castellan/internal/auth"
	"github.com/castellan/castellan/internal/logging"
)

// Middleware enforces the access table against the security decision the
// authentication gateway left in the request context.
type Middleware struct {
	table *Table
	audit *audit.Logger
}

// NewMiddleware creates the path authorization middleware. The audit
// logger may be nil.
func NewMiddleware(table *Table, auditLog *audit.Logger) *Middleware {
	return &Middleware{table: table, audit: auditLog}
}

// Enforce is chi-compatible middleware. Internal callers bypass the table
// entirely; everyone else is checked against the first matching rule.
// Anonymous callers hitting a protected path get 401, authenticated callers
// missing the required capability get 403.
func (m *Middleware) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := auth.DecisionFromContext(r.Context())

		if decision.Kind == auth.DecisionInternalBypass {
			RecordAccessDecision("internal_bypass")
			next.ServeHTTP(w, r)
			return
		}

		rule := m.table.Lookup(r.Method, r.URL.Path)
		switch rule.Requirement {
		case PermitAll:
			RecordAccessDecision("permit")
			next.ServeHTTP(w, r)
			return

		case RequireAuthenticated:
			if decision.Kind != auth.DecisionAuthenticated {
				m.reject(w, r, decision, rule)
				return
			}

		case RequireCapability:
			if decision.Kind != auth.DecisionAuthenticated {
				m.reject(w, r, decision, rule)
				return
			}
			if !decision.Identity.Has(rule.Capability) {
				m.reject(w, r, decision, rule)
				return
			}
		}

		RecordAccessDecision("permit")
		next.ServeHTTP(w, r)
	})
}

// reject writes the denial the decision calls for: 401 when the caller
// never authenticated, 403 when it did but lacks the capability.
func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, decision *auth.SecurityDecision, rule Rule) {
	if decision.Kind != auth.DecisionAuthenticated {
		RecordAccessDecision("deny_unauthenticated")
		logging.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Access denied: authentication required")
		http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
		return
	}

	RecordAccessDecision("deny_forbidden")
	logging.Ctx(r.Context()).Warn().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("subject", decision.Identity.Subject).
		Str("required", string(rule.Capability)).
		Msg("Access denied: insufficient permissions")
	if m.audit != nil {
		m.audit.Record(r.Context(), &audit.Event{
			Type:   audit.EventAccessDenied,
			Actor:  decision.Identity.Subject,
			Target: r.URL.Path,
			Details: map[string]string{
				"method":   r.Method,
				"required": string(rule.Capability),
			},
		})
	}
	http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
}
