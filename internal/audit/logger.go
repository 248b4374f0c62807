// Castellan - HTTP Request Authentication and Authorization Gateway
// Copyright 2026 The Castellan Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/castellan/castellan

package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/castellan/castellan/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool

	// BufferSize is the size of the async write buffer.
	BufferSize int

	// Retention is how long stored events are kept.
	Retention time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:    true,
		BufferSize: 1000,
		Retention:  90 * 24 * time.Hour,
	}
}

// Logger records audit events. Writes to the store are asynchronous so the
// request path never blocks on audit persistence; a full buffer drops the
// event with a warning rather than stalling the caller.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopOnce  sync.Once
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates an audit logger writing to the given store.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// Record logs and enqueues an event. The timestamp and ID are filled in
// here so callers only describe what happened.
func (l *Logger) Record(_ context.Context, event *Event) {
	if !l.config.Enabled {
		return
	}

	event.ID = newEventID()
	event.Timestamp = time.Now().UTC()

	logging.Info().
		Str("audit_event", string(event.Type)).
		Str("actor", event.Actor).
		Str("target", event.Target).
		Msg("Audit event")

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().
			Str("audit_event", string(event.Type)).
			Msg("Audit buffer full, event dropped")
	}
}

// Recent returns up to limit stored events, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Event, error) {
	return l.store.Recent(ctx, limit)
}

// Close drains the buffer and stops the writer.
func (l *Logger) Close() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case event := <-l.eventChan:
			l.write(event)
		case <-l.stopChan:
			// Drain whatever is still buffered.
			for {
				select {
				case event := <-l.eventChan:
					l.write(event)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).
			Str("audit_event", string(event.Type)).
			Msg("Failed to persist audit event")
	}
}

func newEventID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b[:])
}
