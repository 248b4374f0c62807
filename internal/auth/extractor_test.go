// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtract(t *testing.T) {
	extractor := NewCredentialExtractor()

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{
			name: "no credential",
			want: "",
		},
		{
			name:   "bearer header",
			header: "Bearer abc123",
			want:   "abc123",
		},
		{
			name:   "lowercase bearer prefix",
			header: "bearer abc123",
			want:   "abc123",
		},
		{
			name:   "header without prefix is taken verbatim",
			header: "abc123",
			want:   "abc123",
		},
		{
			name:   "whitespace after prefix is trimmed",
			header: "Bearer   abc123  ",
			want:   "abc123",
		},
		{
			name:   "blank header falls back to cookie",
			header: "   ",
			cookie: "cookietoken",
			want:   "cookietoken",
		},
		{
			name:   "cookie fallback",
			cookie: "cookietoken",
			want:   "cookietoken",
		},
		{
			name:   "header wins over cookie",
			header: "Bearer headertoken",
			cookie: "cookietoken",
			want:   "headertoken",
		},
		{
			name:   "blank cookie yields nothing",
			cookie: "   ",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/resource", nil)
			if tt.header != "" {
				r.Header.Set(AuthorizationHeader, tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: tt.cookie})
			}

			if got := extractor.Extract(r); got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasAuthorizationHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if HasAuthorizationHeader(r) {
		t.Error("expected false without header")
	}

	r.Header.Set(AuthorizationHeader, "   ")
	if HasAuthorizationHeader(r) {
		t.Error("expected false for blank header")
	}

	r.Header.Set(AuthorizationHeader, "Bearer tok")
	if !HasAuthorizationHeader(r) {
		t.Error("expected true for non-blank header")
	}
}
