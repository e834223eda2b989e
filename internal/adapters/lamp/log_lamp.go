// Package lamp contains implementations of the lamp actuator port.
package lamp

import (
	"context"
	"log"
	"sync"

	"github.com/example/sigos/internal/ports/secondary"
)

// LogLamp implements secondary.Lamp by logging each applied state.
// It stands in for the GPIO driver on hosts without one.
type LogLamp struct {
	mu     sync.Mutex
	logger *log.Logger
	last   secondary.LampState
	set    bool
}

// NewLogLamp creates a lamp that writes transitions to logger.
func NewLogLamp(logger *log.Logger) *LogLamp {
	return &LogLamp{logger: logger}
}

// Apply logs the new state. Repeats of the last applied state are skipped.
func (l *LogLamp) Apply(ctx context.Context, state secondary.LampState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set && l.last == state {
		return nil
	}
	l.logger.Printf("lamp state=%s level=%d", state.State, state.Level)
	l.last = state
	l.set = true
	return nil
}

// Current returns the last applied state, and false before the first Apply.
func (l *LogLamp) Current() (secondary.LampState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.set
}

// Ensure LogLamp implements the interface
var _ secondary.Lamp = (*LogLamp)(nil)
