// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package authz

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/castellan/castellan/internal/auth"
	"github.com/castellan/castellan/internal/logging"
	"github.com/castellan/castellan/internal/roles"
)

// validate is a reusable validator instance
var validate = validator.New()

// AssignRolesRequest is the payload for replacing a subject's roles.
type AssignRolesRequest struct {
	Roles []string `json:"roles" validate:"required,dive,min=1,max=255"`
}

// Handlers serves the admin role management API under /api/v1/admin/roles.
// The path authorization table already restricts the admin tree to admin
// capability holders; the service layer re-checks so the rules hold even if
// a handler is ever mounted elsewhere.
type Handlers struct {
	service *Service
}

// NewHandlers creates the role management handler set.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// ListAssignments handles GET /api/v1/admin/roles.
func (h *Handlers) ListAssignments(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())

	assignments, err := h.service.ListAssignments(r.Context(), actor)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, assignments)
}

// GetAssignment handles GET /api/v1/admin/roles/{subject}.
func (h *Handlers) GetAssignment(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	subject := chi.URLParam(r, "subject")

	assignment, err := h.service.GetAssignment(r.Context(), actor, subject)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, assignment)
}

// SetAssignment handles PUT /api/v1/admin/roles/{subject}.
func (h *Handlers) SetAssignment(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	subject := chi.URLParam(r, "subject")

	var req AssignRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "Bad Request: roles list is required", http.StatusBadRequest)
		return
	}

	assignment, err := h.service.SetAssignment(r.Context(), actor, subject, req.Roles)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, assignment)
}

// DeleteAssignment handles DELETE /api/v1/admin/roles/{subject}.
func (h *Handlers) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	subject := chi.URLParam(r, "subject")

	if err := h.service.DeleteAssignment(r.Context(), actor, subject); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAuditEvents handles GET /api/v1/admin/audit. The limit query
// parameter caps the result, defaulting to 100.
func (h *Handlers) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			http.Error(w, "Bad Request: limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := h.service.RecentAuditEvents(r.Context(), actor, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// respondServiceError maps service errors to HTTP statuses.
func (h *Handlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAdminRequired):
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
	case errors.Is(err, ErrSelfRoleChange):
		http.Error(w, "Forbidden: cannot modify own roles", http.StatusForbidden)
	case errors.Is(err, ErrEmptySubject):
		http.Error(w, "Bad Request: subject must not be empty", http.StatusBadRequest)
	case errors.Is(err, auth.ErrUnsupportedRole):
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, roles.ErrNotFound):
		http.Error(w, "Not Found: no role assignment for subject", http.StatusNotFound)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Role management error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
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
