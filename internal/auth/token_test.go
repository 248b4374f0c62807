// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/castellan/castellan/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenManager(t *testing.T, ttl time.Duration) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(&config.SecurityConfig{
		SigningSecret: testSecret,
		TokenTTL:      ttl,
	})
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	return m
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(&config.SecurityConfig{})
	if err == nil {
		t.Fatal("expected error for empty signing secret")
	}
}

func TestGenerateAndValidate(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)

	token, err := m.Generate("alice", []string{"ROLE_ADMIN"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	result := m.Validate(token)
	if result.Status != TokenValid {
		t.Fatalf("Validate() status = %s, want valid", result.Status)
	}
	if result.Subject != "alice" {
		t.Errorf("subject = %q, want alice", result.Subject)
	}
	if len(result.Roles) != 1 || result.Roles[0] != "ROLE_ADMIN" {
		t.Errorf("roles = %v, want [ROLE_ADMIN]", result.Roles)
	}
}

func TestValidateExpired(t *testing.T) {
	m := newTestTokenManager(t, -time.Minute)

	token, err := m.Generate("alice", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result := m.Validate(token); result.Status != TokenExpired {
		t.Errorf("Validate() status = %s, want expired", result.Status)
	}
}

func TestValidateBadSignature(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)
	other := newTestTokenManager(t, time.Hour)
	other.secret = []byte("fedcba9876543210fedcba9876543210")

	token, err := other.Generate("alice", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result := m.Validate(token); result.Status != TokenBadSignature {
		t.Errorf("Validate() status = %s, want bad_signature", result.Status)
	}
}

func TestValidateMalformed(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "not a jwt", token: "garbage"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := m.Validate(tt.token); result.Status != TokenMalformed {
				t.Errorf("Validate() status = %s, want malformed", result.Status)
			}
		})
	}
}

func TestValidateRejectsMissingSubject(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if result := m.Validate(token); result.Status != TokenMalformed {
		t.Errorf("Validate() status = %s, want malformed for empty subject", result.Status)
	}
}

func TestValidateRejectsUnexpectedAlgorithm(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)

	// alg=none tokens must never validate.
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if result := m.Validate(token); result.Status == TokenValid {
		t.Error("alg=none token must not validate")
	}
}
