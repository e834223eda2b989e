package primary

import (
	"context"
	"net/netip"
	"time"
)

// CommandService defines the primary port for executing protocol commands.
// Implementations serialise every call; it is safe for concurrent use.
type CommandService interface {
	// Execute parses and dispatches one command line.
	// A non-nil error is reserved for infrastructure failures; unknown
	// commands and bad parameters are reported in the response.
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error)

	// Help returns the description of every registered command.
	Help() string

	// Snapshot returns the current lumen state for display.
	Snapshot(ctx context.Context) (*LumenSnapshot, error)
}

// ExecuteRequest contains one line received from a client.
type ExecuteRequest struct {
	Line      string
	Source    netip.Addr
	Timestamp time.Time // zero means now
}

// ExecuteResponse contains the outcome of a command.
type ExecuteResponse struct {
	Matched  bool   // a registered command accepted the line
	Success  bool   // the command's handler succeeded
	Output   string // handler text, or "command not found"
	Response string // Output framed for the wire
}

// LumenSnapshot is a read-only view of the arbitrated state.
type LumenSnapshot struct {
	Current  string
	Default  string
	Level    int
	Priority []string // highest first
	Active   []*ActiveRequest
}

// ActiveRequest is one standing request at the port boundary.
type ActiveRequest struct {
	State     string
	Source    string
	Timestamp time.Time
}
