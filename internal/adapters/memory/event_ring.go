// Package memory contains in-process implementations of repository interfaces.
package memory

import (
	"context"
	"sync"

	"github.com/example/sigos/internal/ports/secondary"
)

// EventRing implements secondary.EventRepository as a bounded ring buffer.
// Once full, each append overwrites the oldest event.
type EventRing struct {
	mu     sync.Mutex
	buf    []*secondary.EventRecord
	head   int // index of the oldest event
	size   int
	nextID int64
}

// NewEventRing creates a ring holding at most capacity events.
func NewEventRing(capacity int) *EventRing {
	if capacity < 1 {
		capacity = 1
	}
	return &EventRing{buf: make([]*secondary.EventRecord, capacity)}
}

// Append stores a copy of event and sets its ID.
func (r *EventRing) Append(ctx context.Context, event *secondary.EventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.ID = r.nextID
	stored := *event

	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = &stored
		r.size++
		return nil
	}
	r.buf[r.head] = &stored
	r.head = (r.head + 1) % len(r.buf)
	return nil
}

// List returns up to limit events, newest first.
func (r *EventRing) List(ctx context.Context, limit int) ([]*secondary.EventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.size
	if limit > 0 && limit < n {
		n = limit
	}
	events := make([]*secondary.EventRecord, 0, n)
	for i := 0; i < n; i++ {
		e := *r.buf[(r.head+r.size-1-i)%len(r.buf)]
		events = append(events, &e)
	}
	return events, nil
}

// Prune drops all but the newest keep events.
func (r *EventRing) Prune(ctx context.Context, keep int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	if r.size <= keep {
		return 0, nil
	}
	removed := r.size - keep
	for i := 0; i < removed; i++ {
		r.buf[(r.head+i)%len(r.buf)] = nil
	}
	r.head = (r.head + removed) % len(r.buf)
	r.size = keep
	return removed, nil
}

// Ensure EventRing implements the interface
var _ secondary.EventRepository = (*EventRing)(nil)
