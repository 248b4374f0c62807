// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package audit

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefix for audit entries. Keys embed a reverse timestamp so a
// forward iteration yields newest first.
const prefixAudit = "audit:"

// BadgerStore persists audit events in BadgerDB with TTL-based retention.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
}

// NewBadgerStore wraps an already-open BadgerDB. The gateway shares one
// database between the role store and the audit trail; key prefixes keep
// them apart.
func NewBadgerStore(db *badger.DB, retention time.Duration) *BadgerStore {
	return &BadgerStore{db: db, retention: retention}
}

func auditKey(event *Event) []byte {
	// Reverse timestamp sorts newest first under forward iteration.
	reverse := ^uint64(0) - uint64(event.Timestamp.UnixNano())
	return []byte(fmt.Sprintf("%s%020d:%s", prefixAudit, reverse, event.ID))
}

// Save writes one event, expiring it after the retention window.
func (s *BadgerStore) Save(_ context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(auditKey(event), data)
		if s.retention > 0 {
			e = e.WithTTL(s.retention)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *BadgerStore) Recent(_ context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []Event
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixAudit)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(events) < limit; it.Next() {
			var event Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				return fmt.Errorf("decode audit event: %w", err)
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Close is a no-op: the shared database is closed by its owner.
func (s *BadgerStore) Close() error {
	return nil
}
