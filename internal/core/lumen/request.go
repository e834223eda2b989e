// Package lumen contains the pure business logic for the semaphore
// illumination state: state requests, priority arbitration and the
// brightness level.
// This is part of the Functional Core - no I/O, only pure functions.
package lumen

import (
	"net/netip"
	"time"
)

// StateID indexes the registry's fixed table of state names.
type StateID int

// Request is one requester's standing demand for a state.
type Request struct {
	State     StateID
	Source    netip.Addr
	Timestamp time.Time
}

// NewRequest builds a request for state from source at ts.
func NewRequest(state StateID, source netip.Addr, ts time.Time) Request {
	return Request{State: state, Source: source, Timestamp: ts}
}

// Equal reports whether two requests name the same state and requester.
// The timestamp is informational and ignored.
func (r Request) Equal(other Request) bool {
	return r.State == other.State && r.Source == other.Source
}

// TimestampFormat is how request times are printed.
const TimestampFormat = "15:04:05"

func (r Request) render(names []string) string {
	return r.Timestamp.UTC().Format(TimestampFormat) + ": " + names[r.State] + ", " + r.Source.String()
}
