// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package config

import (
	"fmt"
)

// minSigningSecretLength is the minimum length for the token signing secret.
const minSigningSecretLength = 32

// Validate checks the configuration for fatal problems. It is called from
// Load; a non-nil error means the process must not start serving.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	// Fail-closed: the signing secret is the one startup requirement.
	// Every other security setting has a safe default.
	if c.Security.SigningSecret == "" {
		return fmt.Errorf("SIGNING_SECRET is required but was empty")
	}
	if len(c.Security.SigningSecret) < minSigningSecretLength {
		return fmt.Errorf("SIGNING_SECRET must be at least %d characters", minSigningSecretLength)
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %v", c.Security.TokenTTL)
	}
	if c.Security.RateLimitReqs <= 0 && !c.Security.RateLimitDisabled {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	return nil
}
