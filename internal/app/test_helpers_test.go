package app

import (
	"context"

	"github.com/example/sigos/internal/ports/secondary"
)

// mockEventRepository implements secondary.EventRepository for testing.
type mockEventRepository struct {
	events    []*secondary.EventRecord
	nextID    int64
	appendErr error
	listErr   error
	pruneErr  error
}

func newMockEventRepository() *mockEventRepository {
	return &mockEventRepository{}
}

func (m *mockEventRepository) Append(ctx context.Context, event *secondary.EventRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.nextID++
	event.ID = m.nextID
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventRepository) List(ctx context.Context, limit int) ([]*secondary.EventRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*secondary.EventRecord
	for i := len(m.events) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, m.events[i])
	}
	return result, nil
}

func (m *mockEventRepository) Prune(ctx context.Context, keep int) (int, error) {
	if m.pruneErr != nil {
		return 0, m.pruneErr
	}
	if len(m.events) <= keep {
		return 0, nil
	}
	removed := len(m.events) - keep
	m.events = m.events[removed:]
	return removed, nil
}

// mockLamp implements secondary.Lamp for testing.
type mockLamp struct {
	applied  []secondary.LampState
	applyErr error
}

func (m *mockLamp) Apply(ctx context.Context, state secondary.LampState) error {
	m.applied = append(m.applied, state)
	return m.applyErr
}

// Ensure mocks implement the interfaces
var (
	_ secondary.EventRepository = (*mockEventRepository)(nil)
	_ secondary.Lamp            = (*mockLamp)(nil)
)
