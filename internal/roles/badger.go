// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/castellan/castellan/internal/config"
	"github.com/castellan/castellan/internal/logging"
)

// Key prefix for role assignment entries
const prefixRoles = "roles:"

// BadgerStore persists role assignments in BadgerDB. Values are
// JSON-encoded string slices under "roles:<subject>" keys.
type BadgerStore struct {
	db *badger.DB
}

// Open creates or opens a BadgerStore at the configured path. With
// InMemory set the store lives entirely in RAM, which is what tests and
// ephemeral deployments want.
func Open(cfg *config.StoreConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = true
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open role store: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Role store opened")
	return &BadgerStore{db: db}, nil
}

func rolesKey(subject string) []byte {
	return []byte(prefixRoles + subject)
}

// GetRoles returns the stored role names for a subject.
func (s *BadgerStore) GetRoles(_ context.Context, subject string) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rolesKey(subject))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &names)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get roles for %q: %w", subject, err)
	}
	return names, nil
}

// SetRoles replaces the subject's assignment.
func (s *BadgerStore) SetRoles(_ context.Context, subject string, roleNames []string) error {
	data, err := json.Marshal(roleNames)
	if err != nil {
		return fmt.Errorf("marshal roles for %q: %w", subject, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rolesKey(subject), data)
	})
	if err != nil {
		return fmt.Errorf("set roles for %q: %w", subject, err)
	}
	return nil
}

// DeleteRoles removes the subject's assignment.
func (s *BadgerStore) DeleteRoles(_ context.Context, subject string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(rolesKey(subject)); err != nil {
			return err
		}
		return txn.Delete(rolesKey(subject))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete roles for %q: %w", subject, err)
	}
	return nil
}

// List returns every stored assignment.
func (s *BadgerStore) List(_ context.Context) (map[string][]string, error) {
	out := make(map[string][]string)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRoles)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			subject := strings.TrimPrefix(string(item.Key()), prefixRoles)
			var names []string
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &names)
			}); err != nil {
				return fmt.Errorf("decode roles for %q: %w", subject, err)
			}
			out[subject] = names
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DB exposes the underlying BadgerDB so other stores can share it under
// their own key prefixes.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// Close releases the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
