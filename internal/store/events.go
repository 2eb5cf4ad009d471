// ABOUTME: Audited event persistence for SQLiteStore
// ABOUTME: Append-only inserts and newest-first listing per space

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// normalizeLimit applies default (100) and cap (1000) to list limits.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// SaveEvent appends an event record. ID and CreatedAt are generated if not set.
func (s *SQLiteStore) SaveEvent(ctx context.Context, rec *EventRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, kind, actor_id, actor_label, space_id, text, raw, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Kind, rec.ActorID, rec.ActorLabel, rec.SpaceID, rec.Text, rec.Raw,
		rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	s.logger.Debug("saved event", "id", rec.ID, "kind", rec.Kind, "space", rec.SpaceID)
	return nil
}

// ListEvents returns the most recent events, newest first.
// An empty spaceID lists events of every space.
func (s *SQLiteStore) ListEvents(ctx context.Context, spaceID string, limit int) ([]*EventRecord, error) {
	query := `SELECT id, kind, actor_id, actor_label, space_id, text, raw, created_at FROM events`
	var args []any
	if spaceID != "" {
		query += ` WHERE space_id = ?`
		args = append(args, spaceID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, normalizeLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*EventRecord
	for rows.Next() {
		var rec EventRecord
		var label, space, text, raw sql.NullString
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.ActorID, &label, &space, &text, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		rec.ActorLabel = label.String
		rec.SpaceID = space.String
		rec.Text = text.String
		rec.Raw = raw.String
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
