package secondary

import (
	"context"
	"time"
)

// EventRepository defines the secondary port for the state audit trail.
// It records what was commanded; it is never used to restore state.
type EventRepository interface {
	// Append stores a new event and fills in its ID.
	Append(ctx context.Context, event *EventRecord) error

	// List returns up to limit events, newest first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*EventRecord, error)

	// Prune deletes all but the newest keep events and returns how many were removed.
	Prune(ctx context.Context, keep int) (int, error)
}

// EventRecord is one audited command as stored in persistence.
type EventRecord struct {
	ID         int64
	OccurredAt time.Time
	Source     string // requester address
	Command    string // the command line as dispatched
	Previous   string // resolved state before the command
	Current    string // resolved state after the command
}
