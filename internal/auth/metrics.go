// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway Pipeline Metrics
	gatewayDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_decisions_total",
			Help: "Total number of gateway security decisions",
		},
		[]string{"outcome"}, // "anonymous", "authenticated", "internal_bypass"
	)

	tokenValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_token_validations_total",
			Help: "Total number of bearer token validations",
		},
		[]string{"status"}, // "valid", "malformed", "expired", "bad_signature"
	)

	csrfRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_csrf_rejections_total",
			Help: "Total number of requests rejected by CSRF validation",
		},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // "success", "bad_credentials", "unavailable"
	)
)

// RecordGatewayDecision counts one pipeline outcome.
func RecordGatewayDecision(kind DecisionKind) {
	gatewayDecisions.WithLabelValues(kind.String()).Inc()
}

// RecordTokenValidation counts one token validation by terminal status.
func RecordTokenValidation(status ValidationStatus) {
	tokenValidations.WithLabelValues(status.String()).Inc()
}

// RecordCSRFRejection counts one CSRF double-submit failure.
func RecordCSRFRejection() {
	csrfRejections.Inc()
}

// RecordLoginAttempt counts one login attempt by result.
func RecordLoginAttempt(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}
