// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/castellan/castellan/internal/config"
)

// Claims represents the gateway's token claims: a subject (in the
// registered claims) and an optional list of role names.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// ValidationStatus classifies the outcome of token validation. The gateway
// maps every non-valid status to an anonymous decision; the distinction
// exists only for metrics and logs, never for the caller.
type ValidationStatus int

const (
	// TokenValid means signature and validity window checked out.
	TokenValid ValidationStatus = iota

	// TokenMalformed covers structural problems: not a JWT, unknown
	// claims encoding, missing subject.
	TokenMalformed

	// TokenExpired means the token was once valid but its window passed.
	TokenExpired

	// TokenBadSignature means the signature did not verify against the
	// configured secret.
	TokenBadSignature
)

// String returns the status as a metrics label.
func (s ValidationStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	case TokenBadSignature:
		return "bad_signature"
	default:
		return "malformed"
	}
}

// ValidationResult is the explicit outcome of validating one credential.
// Modeling this as a value rather than an error keeps the fail-open-to-
// anonymous mapping visible in the pipeline instead of hidden in a
// catch-all.
type ValidationResult struct {
	Status  ValidationStatus
	Subject string
	Roles   []string
}

// TokenManager signs and validates bearer tokens using HMAC-SHA256 with the
// process-wide signing secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager from the security configuration.
// The secret is stored as []byte to avoid string interning. Returns an
// error when the secret is empty; config validation normally catches this
// at startup.
func NewTokenManager(cfg *config.SecurityConfig) (*TokenManager, error) {
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("SIGNING_SECRET is required but was empty")
	}
	return &TokenManager{
		secret: []byte(cfg.SigningSecret),
		ttl:    cfg.TokenTTL,
	}, nil
}

// Generate mints a signed token for the subject with the given role claims.
// Roles may be empty; resolution then falls back to stored roles or the
// bootstrap rule.
func (m *TokenManager) Generate(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// TTL returns the configured token time-to-live.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Validate checks the credential's signature and validity window and
// extracts subject and role claims. It never returns an error: every
// failure mode is folded into the result status.
func (m *TokenManager) Validate(tokenString string) ValidationResult {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Reject unexpected algorithms to prevent confusion attacks.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ValidationResult{Status: TokenExpired}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ValidationResult{Status: TokenBadSignature}
		default:
			return ValidationResult{Status: TokenMalformed}
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return ValidationResult{Status: TokenMalformed}
	}
	if claims.Subject == "" {
		return ValidationResult{Status: TokenMalformed}
	}

	return ValidationResult{
		Status:  TokenValid,
		Subject: claims.Subject,
		Roles:   claims.Roles,
	}
}
