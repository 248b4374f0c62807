// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
)

// CSRF protection errors.
var (
	// ErrCSRFTokenMissing indicates no CSRF token was provided.
	ErrCSRFTokenMissing = errors.New("CSRF token missing")

	// ErrCSRFTokenMismatch indicates the header token did not echo the
	// cookie token.
	ErrCSRFTokenMismatch = errors.New("CSRF token mismatch")
)

const (
	// CSRFCookieName holds the browser-readable CSRF token.
	CSRFCookieName = "XSRF-TOKEN"

	// CSRFHeaderName must echo the cookie value on protected requests.
	CSRFHeaderName = "X-XSRF-Token"

	// csrfTokenLength is the byte length of generated tokens.
	csrfTokenLength = 32
)

// safeMethods are read-only methods per RFC 7231 that never require CSRF
// validation.
var safeMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodTrace:   {},
	http.MethodOptions: {},
}

// CSRFPolicy decides per-request whether forgery-protection validation is
// required and performs the double-submit cookie check. The policy is
// stateless: the cookie and its header echo are compared directly, no
// server-side token store is involved.
type CSRFPolicy struct {
	exemptPaths  []string
	cookieSecure bool
	cookiePath   string
}

// NewCSRFPolicy creates a policy exempting the unauthenticated-by-design
// entry points (login and registration).
func NewCSRFPolicy(cookieSecure bool) *CSRFPolicy {
	return &CSRFPolicy{
		exemptPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/register",
		},
		cookieSecure: cookieSecure,
		cookiePath:   "/",
	}
}

// RequiresValidation reports whether this request must pass the CSRF check.
// In order: safe methods never do; the login/registration endpoints never
// do; requests carrying a non-blank Authorization header never do (bearer
// callers are not browsers and cannot be forged via cookies); everything
// else does.
func (p *CSRFPolicy) RequiresValidation(method, path string, hasAuthHeader bool) bool {
	if _, ok := safeMethods[method]; ok {
		return false
	}
	for _, exempt := range p.exemptPaths {
		if path == exempt {
			return false
		}
	}
	if hasAuthHeader {
		return false
	}
	return true
}

// Validate performs the double-submit check: the request header must echo
// the cookie value exactly. Comparison is constant-time.
func (p *CSRFPolicy) Validate(r *http.Request) error {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrCSRFTokenMissing
	}

	headerToken := r.Header.Get(CSRFHeaderName)
	if headerToken == "" {
		return ErrCSRFTokenMissing
	}

	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(headerToken)) != 1 {
		return ErrCSRFTokenMismatch
	}
	return nil
}

// EnsureToken sets a CSRF cookie if the request does not already carry
// one. Called on safe requests so browsers obtain a token before their
// first mutating request. The cookie is deliberately not HttpOnly: the
// front-end must read it to echo it in the header.
func (p *CSRFPolicy) EnsureToken(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		return
	}

	token, err := generateCSRFToken()
	if err != nil {
		// Token generation only fails when the system entropy source is
		// broken; the next safe request retries.
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     p.cookiePath,
		Secure:   p.cookieSecure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

// generateCSRFToken generates a cryptographically random token.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
