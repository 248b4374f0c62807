// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/castellan/castellan/internal/logging"
)

// ReadyCheck is a named readiness probe. It should return quickly; the
// handler runs each check with a short deadline.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health serves the liveness and readiness endpoints.
type Health struct {
	version string
	checks  []ReadyCheck
}

// NewHealth creates the health handler set.
func NewHealth(version string, checks ...ReadyCheck) *Health {
	return &Health{version: version, checks: checks}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Live handles GET /health/live. It answers as long as the process serves
// requests.
func (h *Health) Live(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, &healthResponse{Status: "ok", Version: h.version})
}

// Ready handles GET /health/ready. It runs every registered check and
// reports 503 if any fails.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = err.Error()
			logging.Ctx(r.Context()).Warn().
				Str("check", c.Name).
				Err(err).
				Msg("Readiness check failed")
			continue
		}
		results[c.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	h.respond(w, status, &healthResponse{Status: state, Version: h.version, Checks: results})
}

func (h *Health) respond(w http.ResponseWriter, status int, body *healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write health response")
	}
}
