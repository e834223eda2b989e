package cli

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/sigos/internal/core/lumen"
	"github.com/example/sigos/internal/ports/primary"
)

// CommandAdapter is a thin adapter that translates CLI operations to CommandService calls.
type CommandAdapter struct {
	service primary.CommandService
	out     io.Writer
}

// NewCommandAdapter creates a new CommandAdapter with the given service.
func NewCommandAdapter(service primary.CommandService, out io.Writer) *CommandAdapter {
	return &CommandAdapter{
		service: service,
		out:     out,
	}
}

// Exec dispatches one line as if it came from src and prints the handler output.
// Failures are printed in red; the response is returned either way.
func (a *CommandAdapter) Exec(ctx context.Context, line string, src netip.Addr) (*primary.ExecuteResponse, error) {
	resp, err := a.service.Execute(ctx, primary.ExecuteRequest{
		Line:      line,
		Source:    src,
		Timestamp: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute command: %w", err)
	}

	switch {
	case !resp.Matched:
		fmt.Fprintln(a.out, color.New(color.FgRed).Sprint("Error: "+resp.Output))
	case !resp.Success:
		fmt.Fprintln(a.out, color.New(color.FgRed).Sprint(resp.Output))
	default:
		fmt.Fprintln(a.out, resp.Output)
	}
	return resp, nil
}

// Help prints the command vocabulary.
func (a *CommandAdapter) Help() {
	fmt.Fprint(a.out, a.service.Help())
}

// Status prints the resolved state, the settings behind it and every
// active request.
func (a *CommandAdapter) Status(ctx context.Context) (*primary.LumenSnapshot, error) {
	snap, err := a.service.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read lumen state: %w", err)
	}

	fmt.Fprintf(a.out, "Current:  %s\n", color.New(color.FgGreen).Sprint(snap.Current))
	fmt.Fprintf(a.out, "Default:  %s\n", snap.Default)
	fmt.Fprintf(a.out, "Level:    %d\n", snap.Level)
	fmt.Fprintf(a.out, "Priority: %s\n", strings.Join(snap.Priority, " > "))
	fmt.Fprintln(a.out)

	if len(snap.Active) == 0 {
		fmt.Fprintln(a.out, "No active requests")
		return snap, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SINCE\tSTATE\tSOURCE")
	fmt.Fprintln(w, "-----\t-----\t------")
	for _, r := range snap.Active {
		state := r.State
		if r.State == snap.Current {
			state = color.New(color.FgGreen).Sprint(r.State)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Timestamp.UTC().Format(lumen.TimestampFormat), state, r.Source)
	}
	w.Flush()

	return snap, nil
}
