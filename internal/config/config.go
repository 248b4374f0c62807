// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

// Package config loads and validates the process-wide gateway configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an optional
// YAML file, then environment variables. The resulting Config is immutable
// after load and passed by reference into every component constructor; no
// component reads the environment directly.
package config

import (
	"time"
)

// Config is the root configuration for the gateway process.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds the gateway's authentication and authorization
// settings. SigningSecret is the only required field; the process refuses
// to start without it.
type SecurityConfig struct {
	// SigningSecret signs and verifies bearer tokens (HMAC-SHA256).
	// Required, minimum 32 characters.
	SigningSecret string `koanf:"signing_secret"`

	// TokenTTL is the validity window for tokens minted by the login
	// endpoint.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// InternalSecret enables the service-to-service bypass when set.
	// Blank means the bypass is permanently disabled.
	InternalSecret string `koanf:"internal_secret"`

	// AdminSubjects lists subjects granted the administrative capability
	// by default when they have no explicit role assignment.
	// Comma-separated in the environment.
	AdminSubjects []string `koanf:"admin_subjects"`

	// AdminUsername/AdminPassword form the bootstrap login credential
	// accepted by the login endpoint. Optional; login is disabled when
	// either is blank.
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`

	// CSRFCookieSecure sets the Secure flag on the CSRF cookie.
	CSRFCookieSecure bool `koanf:"csrf_cookie_secure"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// StoreConfig holds settings for the role/identity store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory runs the store without persistence (tests, ephemeral
	// deployments).
	InMemory bool `koanf:"in_memory"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsAdminSubject reports whether subject is on the administrator allow-list.
func (c *SecurityConfig) IsAdminSubject(subject string) bool {
	for _, s := range c.AdminSubjects {
		if s == subject {
			return true
		}
	}
	return false
}
