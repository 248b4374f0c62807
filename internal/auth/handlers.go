// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/castellan/castellan/internal/audit"
	"github.com/castellan/castellan/internal/config"
	"github.com/castellan/castellan/internal/logging"
)

// validate is a reusable validator instance
var validate = validator.New()

// LoginRequest is the credential payload accepted by the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=1,max=1024"`
}

// LoginResponse carries the minted token back to the caller. The token is
// also set as an HttpOnly cookie so browser clients never have to touch it.
type LoginResponse struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserInfoResponse describes the caller's resolved identity.
type UserInfoResponse struct {
	Subject      string   `json:"subject"`
	Capabilities []string `json:"capabilities"`
	Internal     bool     `json:"internal,omitempty"`
}

// Handlers serves the authentication endpoints: login and whoami.
type Handlers struct {
	security *config.SecurityConfig
	tokens   *TokenManager
	audit    *audit.Logger
}

// NewHandlers creates the authentication handler set. The audit logger may
// be nil, in which case login events are only logged.
func NewHandlers(security *config.SecurityConfig, tokens *TokenManager, auditLog *audit.Logger) *Handlers {
	return &Handlers{security: security, tokens: tokens, audit: auditLog}
}

// Login verifies the configured bootstrap credentials and mints a token.
// The token carries no role claims: capabilities are resolved per request
// from the role store and the admin allow-list, so a role change takes
// effect without re-login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.security.AdminUsername == "" || h.security.AdminPassword == "" {
		RecordLoginAttempt("unavailable")
		http.Error(w, "Service Unavailable: login is not configured", http.StatusServiceUnavailable)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "Bad Request: username and password are required", http.StatusBadRequest)
		return
	}

	// Both comparisons always run so a username miss costs the same as a
	// password miss.
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.security.AdminUsername))
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.security.AdminPassword))
	if userOK&passOK != 1 {
		RecordLoginAttempt("bad_credentials")
		logging.Ctx(r.Context()).Warn().
			Str("username", req.Username).
			Msg("Login failed: bad credentials")
		if h.audit != nil {
			h.audit.Record(r.Context(), &audit.Event{
				Type:  audit.EventLoginFailure,
				Actor: req.Username,
			})
		}
		http.Error(w, "Unauthorized: invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.Generate(req.Username, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Token generation failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	expiresAt := time.Now().Add(h.tokens.TTL())
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.security.CSRFCookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	RecordLoginAttempt("success")
	logging.Ctx(r.Context()).Info().
		Str("subject", req.Username).
		Msg("Login succeeded")
	if h.audit != nil {
		h.audit.Record(r.Context(), &audit.Event{
			Type:  audit.EventLoginSuccess,
			Actor: req.Username,
		})
	}

	respondJSON(w, http.StatusOK, &LoginResponse{
		Token:     token,
		Subject:   req.Username,
		ExpiresAt: expiresAt,
	})
}

// Logout clears the token cookie. The token itself stays valid until it
// expires; there is no server-side revocation list.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.security.CSRFCookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// UserInfo reports the caller's security decision: 401 for anonymous
// requests, the resolved subject and capability list otherwise. Internal
// callers get a marker instead of an identity.
func (h *Handlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	decision := DecisionFromContext(r.Context())

	switch decision.Kind {
	case DecisionInternalBypass:
		respondJSON(w, http.StatusOK, &UserInfoResponse{Internal: true})
	case DecisionAuthenticated:
		respondJSON(w, http.StatusOK, &UserInfoResponse{
			Subject:      decision.Identity.Subject,
			Capabilities: decision.Identity.Capabilities.List(),
		})
	default:
		http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
	}
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}
