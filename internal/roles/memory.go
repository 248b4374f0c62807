// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package roles

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node deployments
// that accept losing assignments on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	roles map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{roles: make(map[string][]string)}
}

// GetRoles returns the stored role names for a subject.
func (s *MemoryStore) GetRoles(_ context.Context, subject string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.roles[subject]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(stored))
	copy(out, stored)
	return out, nil
}

// SetRoles replaces the subject's assignment.
func (s *MemoryStore) SetRoles(_ context.Context, subject string, roleNames []string) error {
	stored := make([]string, len(roleNames))
	copy(stored, roleNames)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[subject] = stored
	return nil
}

// DeleteRoles removes the subject's assignment.
func (s *MemoryStore) DeleteRoles(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[subject]; !ok {
		return ErrNotFound
	}
	delete(s.roles, subject)
	return nil
}

// List returns every stored assignment.
func (s *MemoryStore) List(_ context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.roles))
	for subject, stored := range s.roles {
		names := make([]string, len(stored))
		copy(names, stored)
		out[subject] = names
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
