package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/sigos/internal/adapters/sqlite"
	"github.com/example/sigos/internal/ports/secondary"
)

var baseTime = time.Date(2024, 7, 25, 16, 28, 5, 0, time.UTC)

func TestEventRepository_Append(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEventRepository(testDB)
	ctx := context.Background()

	event := &secondary.EventRecord{
		OccurredAt: baseTime,
		Source:     "192.168.4.10",
		Command:    "state lumen request on",
		Previous:   "off",
		Current:    "on",
	}

	err := repo.Append(ctx, event)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if event.ID == 0 {
		t.Error("expected ID to be set after Append")
	}

	events, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	got := events[0]
	if got.ID != event.ID {
		t.Errorf("expected ID %d, got %d", event.ID, got.ID)
	}
	if !got.OccurredAt.Equal(baseTime) {
		t.Errorf("expected OccurredAt %v, got %v", baseTime, got.OccurredAt)
	}
	if got.Source != "192.168.4.10" || got.Command != "state lumen request on" {
		t.Errorf("unexpected event %+v", got)
	}
	if got.Previous != "off" || got.Current != "on" {
		t.Errorf("expected off -> on, got %s -> %s", got.Previous, got.Current)
	}
}

func TestEventRepository_List(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEventRepository(testDB)
	ctx := context.Background()

	seedEvent(t, testDB, baseTime, "first")
	seedEvent(t, testDB, baseTime.Add(time.Second), "second")
	seedEvent(t, testDB, baseTime.Add(2*time.Second), "third")

	tests := []struct {
		name         string
		limit        int
		wantCommands []string
	}{
		{name: "all", limit: 0, wantCommands: []string{"third", "second", "first"}},
		{name: "negative limit", limit: -1, wantCommands: []string{"third", "second", "first"}},
		{name: "limited", limit: 2, wantCommands: []string{"third", "second"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := repo.List(ctx, tt.limit)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(events) != len(tt.wantCommands) {
				t.Fatalf("expected %d events, got %d", len(tt.wantCommands), len(events))
			}
			for i, want := range tt.wantCommands {
				if events[i].Command != want {
					t.Errorf("events[%d].Command = %q, want %q", i, events[i].Command, want)
				}
			}
		})
	}
}

func TestEventRepository_List_Empty(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEventRepository(testDB)

	events, err := repo.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestEventRepository_Prune(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEventRepository(testDB)
	ctx := context.Background()

	for i, cmd := range []string{"a", "b", "c", "d", "e"} {
		seedEvent(t, testDB, baseTime.Add(time.Duration(i)*time.Second), cmd)
	}

	removed, err := repo.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}

	events, _ := repo.List(ctx, 0)
	if len(events) != 2 || events[0].Command != "e" || events[1].Command != "d" {
		t.Errorf("expected [e d] to remain, got %+v", events)
	}

	removed, err = repo.Prune(ctx, 10)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected nothing removed, got %d", removed)
	}

	removed, _ = repo.Prune(ctx, 0)
	if removed != 2 {
		t.Errorf("Prune(0) removed %d, want 2", removed)
	}
}
