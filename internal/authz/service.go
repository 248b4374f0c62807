// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/castellan/castellan/internal/audit"
	"github.com/castellan/castellan/internal/auth"
	"github.com/castellan/castellan/internal/logging"
	"github.com/castellan/castellan/internal/roles"
)

// Service errors
var (
	// ErrAdminRequired is returned when a role operation is attempted by a non-admin.
	ErrAdminRequired = errors.New("admin role required")

	// ErrSelfRoleChange is returned when an admin tries to change their own roles.
	ErrSelfRoleChange = errors.New("cannot modify own roles")

	// ErrEmptySubject is returned when the target subject is blank.
	ErrEmptySubject = errors.New("subject must not be empty")
)

// Service manages role assignments. Writes validate role names strictly:
// an unrecognized name rejects the whole request rather than silently
// storing something the capability set can never honor.
type Service struct {
	authority *auth.RoleAuthority
	store     roles.Store
	audit     *audit.Logger
}

// NewService creates the role management service. The audit logger may be
// nil, in which case role changes are only logged.
func NewService(authority *auth.RoleAuthority, store roles.Store, auditLog *audit.Logger) *Service {
	return &Service{authority: authority, store: store, audit: auditLog}
}

// Assignment pairs a subject with its stored role names and the
// capabilities they resolve to.
type Assignment struct {
	Subject      string   `json:"subject"`
	Roles        []string `json:"roles"`
	Capabilities []string `json:"capabilities"`
}

// requireAdmin checks that the actor may administer roles and is not
// targeting itself.
func (s *Service) requireAdmin(actor *auth.Identity, target string) error {
	if actor == nil || !actor.Has(auth.CapabilityAdmin) {
		return ErrAdminRequired
	}
	if target != "" && actor.Subject == target {
		return ErrSelfRoleChange
	}
	return nil
}

// GetAssignment returns a subject's stored roles and resolved capabilities.
// A subject with no stored roles reads as an empty assignment, not an error.
func (s *Service) GetAssignment(ctx context.Context, actor *auth.Identity, subject string) (*Assignment, error) {
	if actor == nil || !actor.Has(auth.CapabilityAdmin) {
		return nil, ErrAdminRequired
	}
	if subject == "" {
		return nil, ErrEmptySubject
	}

	stored, err := s.store.GetRoles(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("read roles for %q: %w", subject, err)
	}
	return s.assignment(subject, stored)
}

// SetAssignment replaces a subject's roles. Role names are normalized
// strictly: any unrecognized name fails the call with ErrUnsupportedRole
// wrapped, and nothing is stored.
func (s *Service) SetAssignment(ctx context.Context, actor *auth.Identity, subject string, roleNames []string) (*Assignment, error) {
	if err := s.requireAdmin(actor, subject); err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, ErrEmptySubject
	}

	if _, err := s.authority.Normalize(roleNames, true); err != nil {
		return nil, err
	}

	if err := s.store.SetRoles(ctx, subject, roleNames); err != nil {
		return nil, fmt.Errorf("store roles for %q: %w", subject, err)
	}

	RecordRoleChange("assign")
	logging.Ctx(ctx).Info().
		Str("actor", actor.Subject).
		Str("subject", subject).
		Strs("roles", roleNames).
		Msg("Role assignment updated")
	if s.audit != nil {
		s.audit.Record(ctx, &audit.Event{
			Type:    audit.EventRoleAssigned,
			Actor:   actor.Subject,
			Target:  subject,
			Details: map[string]string{"roles": strings.Join(roleNames, ",")},
		})
	}

	return s.assignment(subject, roleNames)
}

// DeleteAssignment removes a subject's stored roles, dropping it back to
// bootstrap capabilities on its next request.
func (s *Service) DeleteAssignment(ctx context.Context, actor *auth.Identity, subject string) error {
	if err := s.requireAdmin(actor, subject); err != nil {
		return err
	}
	if subject == "" {
		return ErrEmptySubject
	}

	if err := s.store.DeleteRoles(ctx, subject); err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete roles for %q: %w", subject, err)
	}

	RecordRoleChange("revoke")
	logging.Ctx(ctx).Info().
		Str("actor", actor.Subject).
		Str("subject", subject).
		Msg("Role assignment deleted")
	if s.audit != nil {
		s.audit.Record(ctx, &audit.Event{
			Type:   audit.EventRoleRevoked,
			Actor:  actor.Subject,
			Target: subject,
		})
	}
	return nil
}

// ListAssignments returns every stored assignment.
func (s *Service) ListAssignments(ctx context.Context, actor *auth.Identity) ([]*Assignment, error) {
	if actor == nil || !actor.Has(auth.CapabilityAdmin) {
		return nil, ErrAdminRequired
	}

	stored, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	out := make([]*Assignment, 0, len(stored))
	for subject, names := range stored {
		a, err := s.assignment(subject, names)
		if err != nil {
			// A stored assignment that no longer normalizes is logged
			// and skipped rather than failing the whole listing.
			logging.Ctx(ctx).Warn().
				Str("subject", subject).
				Err(err).
				Msg("Skipping unresolvable role assignment")
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// RecentAuditEvents returns the newest audit events, admin only. Without a
// configured audit store the result is empty.
func (s *Service) RecentAuditEvents(ctx context.Context, actor *auth.Identity, limit int) ([]audit.Event, error) {
	if actor == nil || !actor.Has(auth.CapabilityAdmin) {
		return nil, ErrAdminRequired
	}
	if s.audit == nil {
		return []audit.Event{}, nil
	}
	return s.audit.Recent(ctx, limit)
}

func (s *Service) assignment(subject string, roleNames []string) (*Assignment, error) {
	caps, err := s.authority.Normalize(roleNames, false)
	if err != nil {
		return nil, err
	}
	if roleNames == nil {
		roleNames = []string{}
	}
	return &Assignment{
		Subject:      subject,
		Roles:        roleNames,
		Capabilities: caps.List(),
	}, nil
}
