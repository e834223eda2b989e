package secondary

import "context"

// Lamp defines the secondary port for driving the signal light.
// Implementations own the hardware; the application only says what to show.
type Lamp interface {
	// Apply makes the lamp show the given state at the given brightness.
	Apply(ctx context.Context, state LampState) error
}

// LampState is what the lamp should display.
type LampState struct {
	State string // lumen state name, e.g. "blink-slow"
	Level int    // brightness 1-9
}
