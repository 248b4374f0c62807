// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"net/http"
	"strings"
)

const (
	// AuthorizationHeader carries the bearer credential.
	AuthorizationHeader = "Authorization"

	// TokenCookieName is the fallback cookie for browser clients that
	// cannot set an Authorization header.
	TokenCookieName = "token"

	// bearerPrefix is stripped case-insensitively from the header value.
	bearerPrefix = "Bearer "
)

// CredentialExtractor locates a raw bearer credential in a request.
// Absence is a normal outcome, not an error: downstream stages interpret
// an empty result as "no credential offered".
type CredentialExtractor struct {
	cookieName string
}

// NewCredentialExtractor creates an extractor using the well-known fallback
// cookie name.
func NewCredentialExtractor() *CredentialExtractor {
	return &CredentialExtractor{cookieName: TokenCookieName}
}

// Extract returns the raw credential string, or "" if none was offered.
// The Authorization header wins over the cookie; the "Bearer " prefix is
// compared region-based and case-insensitively so surrounding whitespace
// in the remainder is tolerated and trimmed.
func (e *CredentialExtractor) Extract(r *http.Request) string {
	header := r.Header.Get(AuthorizationHeader)
	if strings.TrimSpace(header) != "" {
		if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			header = header[len(bearerPrefix):]
		}
		return strings.TrimSpace(header)
	}

	if cookie, err := r.Cookie(e.cookieName); err == nil {
		if v := strings.TrimSpace(cookie.Value); v != "" {
			return v
		}
	}

	return ""
}

// HasAuthorizationHeader reports whether the request carries a non-blank
// Authorization header. The CSRF policy uses this to distinguish bearer
// API clients from cookie-authenticated browsers.
func HasAuthorizationHeader(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get(AuthorizationHeader)) != ""
}
