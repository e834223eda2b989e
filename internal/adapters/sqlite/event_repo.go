// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/sigos/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository with SQLite.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append persists a new event and sets its ID.
func (r *EventRepository) Append(ctx context.Context, event *secondary.EventRecord) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO state_events (occurred_at, source, command, previous_state, current_state) VALUES (?, ?, ?, ?, ?)`,
		event.OccurredAt.UTC(),
		event.Source,
		event.Command,
		event.Previous,
		event.Current,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event id: %w", err)
	}
	event.ID = id

	return nil
}

// List retrieves up to limit events, newest first. A limit of zero or less
// returns every event.
func (r *EventRepository) List(ctx context.Context, limit int) ([]*secondary.EventRecord, error) {
	query := `SELECT id, occurred_at, source, command, previous_state, current_state FROM state_events ORDER BY id DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		var occurredAt time.Time
		record := &secondary.EventRecord{}
		err := rows.Scan(&record.ID,
			&occurredAt,
			&record.Source,
			&record.Command,
			&record.Previous,
			&record.Current)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		record.OccurredAt = occurredAt.UTC()
		events = append(events, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// Prune deletes all but the newest keep events and returns how many were removed.
func (r *EventRepository) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM state_events WHERE id NOT IN (SELECT id FROM state_events ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned events: %w", err)
	}
	return int(n), nil
}

// Ensure EventRepository implements the interface
var _ secondary.EventRepository = (*EventRepository)(nil)
