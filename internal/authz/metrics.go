// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	accessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_access_decisions_total",
			Help: "Total number of path authorization decisions",
		},
		[]string{"outcome"}, // "permit", "internal_bypass", "deny_unauthenticated", "deny_forbidden"
	)

	roleChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_role_changes_total",
			Help: "Total number of role assignment changes",
		},
		[]string{"operation"}, // "assign", "revoke"
	)
)

// RecordAccessDecision counts one authorization outcome.
func RecordAccessDecision(outcome string) {
	accessDecisions.WithLabelValues(outcome).Inc()
}

// RecordRoleChange counts one role assignment change.
func RecordRoleChange(operation string) {
	roleChanges.WithLabelValues(operation).Inc()
}
