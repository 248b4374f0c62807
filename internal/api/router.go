// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castellan/castellan/internal/auth"
	"github.com/castellan/castellan/internal/authz"
	"github.com/castellan/castellan/internal/middleware"
)

// RouterConfig wires the router's collaborators.
type RouterConfig struct {
	Gateway      *auth.Gateway
	Authorizer   *authz.Middleware
	AuthHandlers *auth.Handlers
	RoleHandlers *authz.Handlers
	Health       *Health
	Middleware   *ChiMiddleware

	// Upstream, when set, receives every request the gateway admits that
	// no local endpoint claims. Unset, unclaimed paths 404 locally.
	Upstream http.Handler
}

// NewRouter builds the chi router. Middleware order is deliberate: request
// identity and panic recovery first, CORS before the security pipeline so
// preflights never hit it, then metrics, then authentication, then path
// authorization. Everything below the pipeline sees a SecurityDecision in
// its context.
func NewRouter(cfg *RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cfg.Middleware.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(cfg.Gateway.Handler)
	r.Use(cfg.Authorizer.Enforce)

	// Liveness and readiness. Permissive rate limit: probes are frequent.
	r.Route("/health", func(r chi.Router) {
		r.Use(cfg.Middleware.RateLimitHealth())
		r.Get("/live", cfg.Health.Live)
		r.Get("/ready", cfg.Health.Ready)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Login flow. Stricter rate limit: credential guessing is the threat.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(cfg.Middleware.RateLimitAuth())
		r.Post("/login", cfg.AuthHandlers.Login)
		r.Post("/logout", cfg.AuthHandlers.Logout)
		r.Get("/userinfo", cfg.AuthHandlers.UserInfo)
	})

	// Admin surface. The authorization table restricts the whole
	// /api/v1/admin tree to admin capability holders.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(cfg.Middleware.RateLimit())
		r.Route("/roles", func(r chi.Router) {
			r.Get("/", cfg.RoleHandlers.ListAssignments)
			r.Get("/{subject}", cfg.RoleHandlers.GetAssignment)
			r.Put("/{subject}", cfg.RoleHandlers.SetAssignment)
			r.Delete("/{subject}", cfg.RoleHandlers.DeleteAssignment)
		})
		r.Get("/audit", cfg.RoleHandlers.ListAuditEvents)
	})

	if cfg.Upstream != nil {
		r.NotFound(cfg.Upstream.ServeHTTP)
	}

	return r
}
