// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"context"
)

type contextKey string

// decisionContextKey is the context key for the per-request SecurityDecision.
const decisionContextKey contextKey = "security_decision"

// Identity is a resolved caller identity. Constructed fresh per request and
// discarded at request end; never persisted or shared across requests.
type Identity struct {
	// Subject is the verified subject string from the credential.
	Subject string `json:"subject"`

	// Capabilities is the effective capability set for this request.
	Capabilities CapabilitySet `json:"capabilities"`
}

// Has reports whether the identity carries the given capability.
func (id *Identity) Has(c Capability) bool {
	return id != nil && id.Capabilities.Has(c)
}

// DecisionKind classifies the outcome of the gateway pipeline.
type DecisionKind int

const (
	// DecisionAnonymous means no usable credential was presented. This is
	// a normal outcome, not an error; the path authorization stage decides
	// whether it becomes a 401.
	DecisionAnonymous DecisionKind = iota

	// DecisionAuthenticated means a credential was verified and an
	// identity resolved.
	DecisionAuthenticated

	// DecisionInternalBypass means the request carried a valid internal
	// shared secret and skips token validation, CSRF and capability
	// checks entirely.
	DecisionInternalBypass
)

// String returns the decision kind for logging and metrics labels.
func (k DecisionKind) String() string {
	switch k {
	case DecisionAuthenticated:
		return "authenticated"
	case DecisionInternalBypass:
		return "internal_bypass"
	default:
		return "anonymous"
	}
}

// SecurityDecision is the per-request outcome of the gateway pipeline,
// consumed immediately by path authorization and handlers. Rejections
// (401/403) are written directly to the response and never reach the
// context.
type SecurityDecision struct {
	Kind DecisionKind

	// Identity is non-nil only for DecisionAuthenticated.
	Identity *Identity
}

// ContextWithDecision stores the decision in the request context.
func ContextWithDecision(ctx context.Context, d *SecurityDecision) context.Context {
	return context.WithValue(ctx, decisionContextKey, d)
}

// DecisionFromContext returns the decision for this request. A request that
// never passed through the gateway is treated as anonymous.
func DecisionFromContext(ctx context.Context) *SecurityDecision {
	if d, ok := ctx.Value(decisionContextKey).(*SecurityDecision); ok {
		return d
	}
	return &SecurityDecision{Kind: DecisionAnonymous}
}

// IdentityFromContext returns the resolved identity, or nil for anonymous
// and internal requests.
func IdentityFromContext(ctx context.Context) *Identity {
	return DecisionFromContext(ctx).Identity
}
