package command

import (
	"context"
	"net/netip"
	"strings"
	"time"
)

// NotFoundOutput is the Result output when no pattern matches.
const NotFoundOutput = "command not found"

// Result is the outcome of a Dispatch.
// Matched reports whether any pattern accepted the line; Success is the
// matched handler's own flag and is always false when Matched is false.
type Result struct {
	Matched bool
	Success bool
	Output  string
}

// Dispatcher holds registered patterns in registration order and routes
// lines to the first one that matches.
//
// Registration must complete before the first Dispatch; the dispatcher is
// sealed by Seal or implicitly by the first Dispatch, and registering after
// that panics. A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	patterns []*Pattern
	sealed   bool
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register appends p to the registration list.
func (d *Dispatcher) Register(p *Pattern) {
	if d.sealed {
		panic("command: register " + strings.Join(p.tokens, " ") + " after dispatcher was sealed")
	}
	d.patterns = append(d.patterns, p)
}

// MustRegister builds a pattern from its parts and registers it.
func (d *Dispatcher) MustRegister(tokens []string, description string, handler Handler) *Pattern {
	p := NewPattern(tokens, description, handler)
	d.Register(p)
	return p
}

// Seal freezes the registration list.
func (d *Dispatcher) Seal() {
	d.sealed = true
}

// Sealed reports whether registration is closed.
func (d *Dispatcher) Sealed() bool {
	return d.sealed
}

// Patterns returns the registered patterns in registration order.
func (d *Dispatcher) Patterns() []*Pattern {
	return append([]*Pattern(nil), d.patterns...)
}

// Dispatch tokenizes line and runs the handler of the first pattern that
// matches. Later patterns are never tried once one has matched, even if they
// are more specific.
func (d *Dispatcher) Dispatch(ctx context.Context, line string, ts time.Time, src netip.Addr) Result {
	d.sealed = true

	words := Tokens(line)
	for _, p := range d.patterns {
		captures, ok := p.TryMatch(words)
		if !ok {
			continue
		}
		success, output := p.execute(Invocation{
			Context:   ctx,
			Captures:  captures,
			Timestamp: ts,
			Source:    src,
		})
		return Result{Matched: true, Success: success, Output: output}
	}

	return Result{Matched: false, Output: NotFoundOutput}
}

// Help returns the Describe line of every registered pattern, in
// registration order, each terminated by a newline.
func (d *Dispatcher) Help() string {
	var b strings.Builder
	for _, p := range d.patterns {
		b.WriteString(p.Describe())
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatResponse renders a Result the way it is written back to a client.
func FormatResponse(r Result) string {
	if !r.Matched {
		return "Error: " + NotFoundOutput + "\n" + "\n>"
	}
	return "\n" + r.Output + "\n>"
}
