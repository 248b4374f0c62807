// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

// Command server runs the Castellan gateway: it authenticates and
// authorizes every request before it reaches a protected endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/castellan/castellan/internal/api"
	"github.com/castellan/castellan/internal/audit"
	"github.com/castellan/castellan/internal/auth"
	"github.com/castellan/castellan/internal/authz"
	"github.com/castellan/castellan/internal/config"
	"github.com/castellan/castellan/internal/logging"
	"github.com/castellan/castellan/internal/roles"
	"github.com/castellan/castellan/internal/supervisor"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Configuration errors are fatal before anything else starts: a
	// gateway with a bad security config must not serve a single request.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Bool("internal_auth", cfg.Security.InternalSecret != "").
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting Castellan")

	store, err := roles.Open(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open role store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing role store")
		}
	}()

	auditLog := audit.NewLogger(audit.NewBadgerStore(store.DB(), audit.DefaultConfig().Retention), nil)
	defer auditLog.Close()

	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create token manager")
	}

	authority := auth.NewRoleAuthority(cfg.Security.AdminSubjects)
	gateway := auth.NewGateway(
		auth.NewInternalClassifier(cfg.Security.InternalSecret),
		auth.NewCredentialExtractor(),
		tokens,
		auth.NewIdentityResolver(authority, store),
		auth.NewCSRFPolicy(cfg.Security.CSRFCookieSecure),
	)

	router := api.NewRouter(&api.RouterConfig{
		Gateway:      gateway,
		Authorizer:   authz.NewMiddleware(authz.NewTable(authz.DefaultRules()), auditLog),
		AuthHandlers: auth.NewHandlers(&cfg.Security, tokens, auditLog),
		RoleHandlers: authz.NewHandlers(authz.NewService(authority, store, auditLog)),
		Health: api.NewHealth(version, api.ReadyCheck{
			Name: "role_store",
			Check: func(ctx context.Context) error {
				_, err := store.GetRoles(ctx, "readiness-probe")
				return err
			},
		}),
		Middleware: api.NewChiMiddleware(&api.ChiMiddlewareConfig{
			CORSAllowedOrigins:   cfg.Security.CORSOrigins,
			CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			CORSAllowedHeaders:   []string{"Content-Type", "Authorization", "X-XSRF-Token"},
			CORSAllowCredentials: true,
			CORSMaxAge:           86400,
			RateLimitRequests:    cfg.Security.RateLimitReqs,
			RateLimitWindow:      cfg.Security.RateLimitWindow,
			RateLimitDisabled:    cfg.Security.RateLimitDisabled,
		}),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	// Give in-flight work a moment to observe cancellation before the
	// deferred store close runs.
	time.Sleep(100 * time.Millisecond)
	logging.Info().Msg("Castellan stopped gracefully")
}
