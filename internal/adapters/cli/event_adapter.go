package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/sigos/internal/core/lumen"
	"github.com/example/sigos/internal/ports/primary"
)

// EventAdapter is a thin adapter that translates CLI operations to EventService calls.
type EventAdapter struct {
	service primary.EventService
	out     io.Writer
}

// NewEventAdapter creates a new EventAdapter with the given service.
func NewEventAdapter(service primary.EventService, out io.Writer) *EventAdapter {
	return &EventAdapter{
		service: service,
		out:     out,
	}
}

// Tail prints up to limit audit events, oldest first.
func (a *EventAdapter) Tail(ctx context.Context, limit int) ([]*primary.Event, error) {
	events, err := a.service.ListEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if len(events) == 0 {
		fmt.Fprintln(a.out, "No log entries.")
		return events, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tCOMMAND\tSTATE")
	fmt.Fprintln(w, "----\t------\t-------\t-----")

	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		change := e.Current
		if e.Previous != e.Current {
			change = e.Previous + " → " + color.New(color.FgYellow).Sprint(e.Current)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.OccurredAt.UTC().Format(lumen.TimestampFormat),
			e.Source,
			e.Command,
			change,
		)
	}

	w.Flush()
	return events, nil
}

// Prune deletes all but the newest keep events.
func (a *EventAdapter) Prune(ctx context.Context, keep int) (int, error) {
	removed, err := a.service.PruneEvents(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Pruned %d event(s), kept at most %d\n", removed, keep)
	return removed, nil
}
