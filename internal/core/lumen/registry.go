package lumen

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrCapacity is returned when a new request would exceed the registry capacity.
var ErrCapacity = errors.New("state request capacity exhausted")

// ErrUnknownState is returned when a state name is not in the registry.
var ErrUnknownState = errors.New("unknown state")

// ErrDuplicateState is returned when a state appears twice in a priority order.
var ErrDuplicateState = errors.New("duplicate state")

// Option configures a Registry.
type Option func(*Registry)

// WithCapacity limits the number of simultaneously active requests.
// Zero means unlimited.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		r.capacity = n
	}
}

// Registry arbitrates between competing state requests.
//
// It owns the active requests in insertion order, a rank per state and a
// default state. The current state is never stored; ResolveCurrentState
// derives it on demand. Passing a StateID outside the name table to any
// method is a programming error and panics.
//
// A Registry is not safe for concurrent use; callers serialise access.
type Registry struct {
	names    []string
	priority []int
	def      StateID
	active   []Request
	capacity int
}

// NewRegistry creates a registry over the given state names.
// Initial ranks follow the enumeration: the state at index i has rank i, so
// later names have higher priority. The default state is the first name.
func NewRegistry(names []string, opts ...Option) (*Registry, error) {
	if len(names) == 0 {
		return nil, errors.New("registry needs at least one state name")
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := validateName(name); err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateState, name)
		}
		seen[name] = true
	}

	r := &Registry{
		names:    append([]string(nil), names...),
		priority: make([]int, len(names)),
	}
	for i := range r.priority {
		r.priority[i] = i
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("state name must not be empty")
	}
	if name[0] == '$' {
		return fmt.Errorf("state name %q must not start with '$'", name)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("state name %q must not contain whitespace", name)
	}
	return nil
}

func (r *Registry) check(state StateID) {
	if state < 0 || int(state) >= len(r.names) {
		panic(fmt.Sprintf("lumen: state %d out of range [0,%d)", state, len(r.names)))
	}
}

// Names returns the state names in enumeration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Name returns the printable name of state.
func (r *Registry) Name(state StateID) string {
	r.check(state)
	return r.names[state]
}

// Lookup finds a state by name.
func (r *Registry) Lookup(name string) (StateID, bool) {
	for i, n := range r.names {
		if n == name {
			return StateID(i), true
		}
	}
	return 0, false
}

// RequestState registers req unless an equal request is already active.
// It returns true when the request was newly added.
func (r *Registry) RequestState(req Request) (bool, error) {
	r.check(req.State)
	for _, existing := range r.active {
		if existing.Equal(req) {
			return false, nil
		}
	}
	if r.capacity > 0 && len(r.active) >= r.capacity {
		return false, fmt.Errorf("%w: %d active", ErrCapacity, len(r.active))
	}
	r.active = append(r.active, req)
	return true, nil
}

// ReleaseState removes the first active request equal to req.
// It reports whether one was found.
func (r *Registry) ReleaseState(req Request) bool {
	r.check(req.State)
	for i, existing := range r.active {
		if existing.Equal(req) {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return true
		}
	}
	return false
}

// ReleaseStateAll removes every active request for state, whoever made it,
// and returns how many were removed.
func (r *Registry) ReleaseStateAll(state StateID) int {
	r.check(state)
	kept := r.active[:0]
	for _, existing := range r.active {
		if existing.State != state {
			kept = append(kept, existing)
		}
	}
	removed := len(r.active) - len(kept)
	// Clear the tail so released requests are not pinned by the backing array
	for i := len(kept); i < len(r.active); i++ {
		r.active[i] = Request{}
	}
	r.active = kept
	return removed
}

// ResetState drops every active request.
func (r *Registry) ResetState() {
	r.active = nil
}

// SetDefaultState sets the state used when no request is active.
func (r *Registry) SetDefaultState(state StateID) {
	r.check(state)
	r.def = state
}

// DefaultState returns the fallback state.
func (r *Registry) DefaultState() StateID {
	return r.def
}

// SetPriority assigns rank to state. Ranks are not required to be unique.
func (r *Registry) SetPriority(state StateID, rank int) {
	r.check(state)
	r.priority[state] = rank
}

// Priority returns the rank of state.
func (r *Registry) Priority(state StateID) int {
	r.check(state)
	return r.priority[state]
}

// SetPriorityOrder re-ranks every state from a highest-first ordering.
// The first state gets rank len(order)-1 and the last gets 0. The order must
// name each state exactly once; on error no rank is changed.
func (r *Registry) SetPriorityOrder(order []StateID) error {
	if len(order) != len(r.names) {
		return fmt.Errorf("priority order names %d states, want %d", len(order), len(r.names))
	}
	seen := make([]bool, len(r.names))
	for _, state := range order {
		if state < 0 || int(state) >= len(r.names) {
			return fmt.Errorf("%w: %d", ErrUnknownState, state)
		}
		if seen[state] {
			return fmt.Errorf("%w: %q", ErrDuplicateState, r.names[state])
		}
		seen[state] = true
	}

	top := len(order) - 1
	for i, state := range order {
		r.priority[state] = top - i
	}
	return nil
}

// PriorityOrder returns every state sorted by rank, highest first.
// Equal ranks keep enumeration order.
func (r *Registry) PriorityOrder() []StateID {
	order := make([]StateID, len(r.names))
	for i := range order {
		order[i] = StateID(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return r.priority[order[i]] > r.priority[order[j]]
	})
	return order
}

// Active returns a copy of the active requests in insertion order.
func (r *Registry) Active() []Request {
	return append([]Request(nil), r.active...)
}

// ResolveCurrentState returns the state the signal should show.
// With no active requests it is the default. Otherwise it is the state of the
// highest ranked request; among equal ranks the earliest inserted wins. Any
// active request outranks the default, whatever its rank.
func (r *Registry) ResolveCurrentState() StateID {
	best := r.def
	bestRank := 0
	found := false
	for _, req := range r.active {
		rank := r.priority[req.State]
		if !found || rank > bestRank {
			best = req.State
			bestRank = rank
			found = true
		}
	}
	return best
}

// RenderActive lists the active requests followed by the current state.
func (r *Registry) RenderActive() string {
	var b strings.Builder
	for _, req := range r.active {
		b.WriteString(req.render(r.names))
		b.WriteByte('\n')
	}
	if len(r.active) == 0 {
		b.WriteString("No active requests\n")
	}
	b.WriteString("Current state: ")
	b.WriteString(r.names[r.ResolveCurrentState()])
	return b.String()
}

// RenderPriority lists the state names by rank, highest first.
func (r *Registry) RenderPriority() string {
	order := r.PriorityOrder()
	names := make([]string, len(order))
	for i, state := range order {
		names[i] = r.names[state]
	}
	return strings.Join(names, " ")
}
