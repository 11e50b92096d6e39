// Package audit records apply/revert/skip outcomes to a local SQLite
// database. The trail answers "what did the engine do to this page and
// when" after the fact, which matters because partial application is an
// expected mode, not an error.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/domedit/apply"
	"github.com/hazyhaar/domedit/idgen"
)

// Store writes change events. Failures are logged via slog and never
// propagate: a failing audit store must not block editing.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets a custom ID generator for event IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates a Store on an open database. Call Init before use.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init creates the schema if needed.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS change_events (
			event_id   TEXT PRIMARY KEY,
			variant    TEXT NOT NULL,
			selector   TEXT NOT NULL,
			kind       TEXT NOT NULL,
			action     TEXT NOT NULL,
			error      TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_change_events_variant
			ON change_events(variant, created_at);`)
	if err != nil {
		return fmt.Errorf("audit: init schema: %w", err)
	}
	return nil
}

// RecordEvent implements apply.Recorder.
func (s *Store) RecordEvent(ctx context.Context, ev apply.Event) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO change_events (
			event_id, variant, selector, kind, action, error, created_at
		) VALUES (?,?,?,?,?,?,?)`,
		s.newID(), ev.Variant, ev.Selector, string(ev.Kind), ev.Action, ev.Err,
		time.Now().Unix())
	if err != nil {
		slog.Error("audit: event insert failed", "error", err, "variant", ev.Variant)
	}
}

// Row is one recorded event.
type Row struct {
	EventID   string `json:"event_id"`
	Variant   string `json:"variant"`
	Selector  string `json:"selector"`
	Kind      string `json:"kind"`
	Action    string `json:"action"`
	Error     string `json:"error,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Recent returns the latest events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, variant, selector, kind, action, error, created_at
		FROM change_events
		ORDER BY created_at DESC, event_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.EventID, &r.Variant, &r.Selector, &r.Kind, &r.Action, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Cleanup deletes events older than the retention window. Zero days
// means no cleanup.
func (s *Store) Cleanup(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(days)*86400
	if _, err := s.db.ExecContext(ctx, `DELETE FROM change_events WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("audit: cleanup: %w", err)
	}
	return nil
}
