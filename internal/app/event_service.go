package app

import (
	"context"
	"fmt"

	"github.com/example/sigos/internal/ports/primary"
	"github.com/example/sigos/internal/ports/secondary"
)

// EventServiceImpl implements the EventService interface.
type EventServiceImpl struct {
	eventRepo secondary.EventRepository
}

// NewEventService creates a new EventService with injected dependencies.
func NewEventService(eventRepo secondary.EventRepository) *EventServiceImpl {
	return &EventServiceImpl{
		eventRepo: eventRepo,
	}
}

// ListEvents retrieves up to limit events, newest first.
func (s *EventServiceImpl) ListEvents(ctx context.Context, limit int) ([]*primary.Event, error) {
	records, err := s.eventRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*primary.Event, len(records))
	for i, r := range records {
		events[i] = s.recordToEvent(r)
	}
	return events, nil
}

// PruneEvents deletes all but the newest keep events.
func (s *EventServiceImpl) PruneEvents(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}
	return s.eventRepo.Prune(ctx, keep)
}

// Helper methods

func (s *EventServiceImpl) recordToEvent(r *secondary.EventRecord) *primary.Event {
	return &primary.Event{
		ID:         r.ID,
		OccurredAt: r.OccurredAt,
		Source:     r.Source,
		Command:    r.Command,
		Previous:   r.Previous,
		Current:    r.Current,
	}
}

// Ensure EventServiceImpl implements the interface
var _ primary.EventService = (*EventServiceImpl)(nil)
