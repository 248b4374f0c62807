// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.SigningSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("defaults with secret pass", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("missing signing secret", func(t *testing.T) {
		cfg := defaultConfig()
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "SIGNING_SECRET") {
			t.Errorf("Validate() error = %v, want SIGNING_SECRET error", err)
		}
	})

	t.Run("short signing secret", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Security.SigningSecret = "too-short"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for short secret")
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for port 0")
		}
	})

	t.Run("non-positive token ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.Security.TokenTTL = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero TTL")
		}
	})

	t.Run("zero rate limit requires explicit disable", func(t *testing.T) {
		cfg := validConfig()
		cfg.Security.RateLimitReqs = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero rate limit")
		}

		cfg.Security.RateLimitDisabled = true
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v with rate limiting disabled", err)
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SIGNING_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("INTERNAL_SECRET", "internal")
	t.Setenv("ADMIN_SUBJECTS", "root, ops")
	t.Setenv("STORE_IN_MEMORY", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Security.TokenTTL != 2*time.Hour {
		t.Errorf("token ttl = %v, want 2h", cfg.Security.TokenTTL)
	}
	if cfg.Security.InternalSecret != "internal" {
		t.Errorf("internal secret = %q", cfg.Security.InternalSecret)
	}
	if len(cfg.Security.AdminSubjects) != 2 || cfg.Security.AdminSubjects[0] != "root" || cfg.Security.AdminSubjects[1] != "ops" {
		t.Errorf("admin subjects = %v, want [root ops]", cfg.Security.AdminSubjects)
	}
	if !cfg.Store.InMemory {
		t.Error("expected in-memory store")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingSecretFails(t *testing.T) {
	// No SIGNING_SECRET in the environment: startup must fail.
	cfg, err := Load()
	if err == nil {
		t.Fatalf("Load() succeeded without signing secret: %+v", cfg)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SIGNING_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("default port = %d, want 8443", cfg.Server.Port)
	}
	if cfg.Security.TokenTTL != 24*time.Hour {
		t.Errorf("default ttl = %v, want 24h", cfg.Security.TokenTTL)
	}
	if !cfg.Security.CSRFCookieSecure {
		t.Error("CSRF cookie must default to Secure")
	}
	if cfg.Security.InternalSecret != "" {
		t.Error("internal bypass must default to disabled")
	}
}

func TestIsAdminSubject(t *testing.T) {
	cfg := &SecurityConfig{AdminSubjects: []string{"root"}}

	if !cfg.IsAdminSubject("root") {
		t.Error("expected root to be admin")
	}
	if cfg.IsAdminSubject("Root") {
		t.Error("allow-list must be case-sensitive")
	}
	if cfg.IsAdminSubject("alice") {
		t.Error("unexpected admin subject")
	}
}

func TestEnvTransformIgnoresUnknownVars(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty", got)
	}
	if got := envTransformFunc("SIGNING_SECRET"); got != "security.signing_secret" {
		t.Errorf("envTransformFunc(SIGNING_SECRET) = %q", got)
	}
}
