// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

// Package audit records security-relevant events: logins, role changes and
// access denials. Events go to the structured log immediately and to a
// queryable store asynchronously.
package audit

import (
	"context"
	"time"
)

// EventType classifies an audit event.
type EventType string

const (
	EventLoginSuccess EventType = "login_success"
	EventLoginFailure EventType = "login_failure"
	EventRoleAssigned EventType = "role_assigned"
	EventRoleRevoked  EventType = "role_revoked"
	EventAccessDenied EventType = "access_denied"
)

// Event is one audit record.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`

	// Actor is the subject that performed the action. Empty for
	// anonymous callers.
	Actor string `json:"actor,omitempty"`

	// Target is the subject or path the action was aimed at.
	Target string `json:"target,omitempty"`

	// Details carries event-specific fields (roles, method, path).
	Details map[string]string `json:"details,omitempty"`
}

// Store persists audit events.
type Store interface {
	// Save writes one event.
	Save(ctx context.Context, event *Event) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Close releases the store.
	Close() error
}
