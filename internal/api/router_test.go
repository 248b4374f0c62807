// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/castellan/castellan/internal/auth"
	"github.com/castellan/castellan/internal/authz"
	"github.com/castellan/castellan/internal/config"
	"github.com/castellan/castellan/internal/roles"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// newTestServer assembles the full middleware stack the way main does,
// with in-memory stores and rate limiting disabled.
func newTestServer(t *testing.T) (http.Handler, *auth.TokenManager) {
	t.Helper()

	security := &config.SecurityConfig{
		SigningSecret:  testSecret,
		TokenTTL:       time.Hour,
		InternalSecret: "internal-secret",
		AdminSubjects:  []string{"root"},
		AdminUsername:  "admin",
		AdminPassword:  "correct-horse",
	}

	store := roles.NewMemoryStore()
	tokens, err := auth.NewTokenManager(security)
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	authority := auth.NewRoleAuthority(security.AdminSubjects)
	gateway := auth.NewGateway(
		auth.NewInternalClassifier(security.InternalSecret),
		auth.NewCredentialExtractor(),
		tokens,
		auth.NewIdentityResolver(authority, store),
		auth.NewCSRFPolicy(false),
	)

	router := NewRouter(&RouterConfig{
		Gateway:      gateway,
		Authorizer:   authz.NewMiddleware(authz.NewTable(authz.DefaultRules()), nil),
		AuthHandlers: auth.NewHandlers(security, tokens, nil),
		RoleHandlers: authz.NewHandlers(authz.NewService(authority, store, nil)),
		Health:       NewHealth("test"),
		Middleware: NewChiMiddleware(&ChiMiddlewareConfig{
			RateLimitDisabled: true,
		}),
	})
	return router, tokens
}

func bearer(t *testing.T, tokens *auth.TokenManager, subject string, roleNames []string) string {
	t.Helper()
	token, err := tokens.Generate(subject, roleNames)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "liveness", path: "/health/live"},
		{name: "readiness", path: "/health/ready"},
		{name: "metrics", path: "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))
			if w.Code != http.StatusOK {
				t.Errorf("GET %s = %d, want 200", tt.path, w.Code)
			}
		})
	}
}

func TestRouterLoginFlow(t *testing.T) {
	router, tokens := newTestServer(t)

	// Login needs no prior authentication and no CSRF token.
	body := `{"username":"admin","password":"correct-horse"}`
	r := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}

	var resp auth.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// The minted token authenticates the userinfo endpoint.
	r = httptest.NewRequest("GET", "/api/v1/auth/userinfo", nil)
	r.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("userinfo status = %d", w.Code)
	}

	var info auth.UserInfoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.Subject != "admin" {
		t.Errorf("subject = %q, want admin", info.Subject)
	}

	// Token must round-trip through the same manager.
	if result := tokens.Validate(resp.Token); result.Status != auth.TokenValid {
		t.Errorf("token status = %s", result.Status)
	}
}

func TestRouterAnonymousRejection(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/auth/userinfo", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRouterAdminRoleAPI(t *testing.T) {
	router, tokens := newTestServer(t)

	adminAuth := bearer(t, tokens, "root", nil) // bootstrap grants admin
	userAuth := bearer(t, tokens, "alice", nil)

	t.Run("non-admin gets 403", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/admin/roles/", nil)
		r.Header.Set("Authorization", userAuth)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("anonymous gets 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/admin/roles/", nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("admin assigns and revokes", func(t *testing.T) {
		r := httptest.NewRequest("PUT", "/api/v1/admin/roles/alice", strings.NewReader(`{"roles":["ROLE_ADMIN"]}`))
		r.Header.Set("Authorization", adminAuth)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("PUT status = %d, body %s", w.Code, w.Body.String())
		}

		// alice now resolves admin from stored roles.
		r = httptest.NewRequest("GET", "/api/v1/admin/roles/", nil)
		r.Header.Set("Authorization", userAuth)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status after assignment = %d, want 200", w.Code)
		}

		r = httptest.NewRequest("DELETE", "/api/v1/admin/roles/alice", nil)
		r.Header.Set("Authorization", adminAuth)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusNoContent {
			t.Fatalf("DELETE status = %d", w.Code)
		}

		// Back to bootstrap: alice loses the admin tree.
		r = httptest.NewRequest("GET", "/api/v1/admin/roles/", nil)
		r.Header.Set("Authorization", userAuth)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("status after revocation = %d, want 403", w.Code)
		}
	})
}

func TestRouterInternalBypass(t *testing.T) {
	router, _ := newTestServer(t)

	r := httptest.NewRequest("GET", "/api/v1/admin/roles/", nil)
	r.Header.Set(auth.InternalAuthHeader, "internal-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("internal request status = %d, want 200", w.Code)
	}
}

func TestRouterCSRFOnCookieAuth(t *testing.T) {
	router, tokens := newTestServer(t)

	token, err := tokens.Generate("root", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	r := httptest.NewRequest("PUT", "/api/v1/admin/roles/alice", strings.NewReader(`{"roles":["ROLE_USER"]}`))
	r.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("cookie-auth PUT without CSRF = %d, want 403", w.Code)
	}

	r = httptest.NewRequest("PUT", "/api/v1/admin/roles/alice", strings.NewReader(`{"roles":["ROLE_USER"]}`))
	r.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: token})
	r.AddCookie(&http.Cookie{Name: auth.CSRFCookieName, Value: "csrf"})
	r.Header.Set(auth.CSRFHeaderName, "csrf")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("cookie-auth PUT with CSRF = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestRouterUnknownPathRequiresAuth(t *testing.T) {
	router, tokens := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/unknown", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous unknown path = %d, want 401", w.Code)
	}

	r := httptest.NewRequest("GET", "/api/v1/unknown", nil)
	r.Header.Set("Authorization", bearer(t, tokens, "alice", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("authenticated unknown path = %d, want 404", w.Code)
	}
}
