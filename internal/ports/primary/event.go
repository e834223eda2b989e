package primary

import (
	"context"
	"time"
)

// EventService defines the primary port for reading the state audit trail.
type EventService interface {
	// ListEvents returns up to limit events, newest first.
	ListEvents(ctx context.Context, limit int) ([]*Event, error)

	// PruneEvents keeps only the newest keep events.
	PruneEvents(ctx context.Context, keep int) (int, error)
}

// Event represents an audited command at the port boundary.
type Event struct {
	ID         int64
	OccurredAt time.Time
	Source     string
	Command    string
	Previous   string
	Current    string
}
