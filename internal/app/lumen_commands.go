package app

import (
	"fmt"
	"strings"

	"github.com/example/sigos/internal/core/command"
	"github.com/example/sigos/internal/core/lumen"
	"github.com/example/sigos/internal/ports/secondary"
)

// Handler output texts.
const (
	outputOK               = "ok"
	errMissingParameter    = "Error: Missing parameter"
	errMissingParameters   = "Error: Missing parameters"
	errInvalidParameter    = "Error: Invalid parameter"
	errInvalidStateName    = "Error: Invalid state name"
	errDuplicateStateName  = "Error: Duplicate state name"
	errAlreadyActive       = "Error: Already active"
	errNotFound            = "Error: Not found"
	errTooManyRequests     = "Error: Too many requests"
	errAuditLogUnavailable = "Error: Audit log unavailable"
)

// reservedStateNames are literals that share a position with state names in
// the vocabulary; a state with one of these names would be unreachable.
var reservedStateNames = []string{"all", "print"}

// lumenState is the mutable state the lumen commands operate on.
// Handlers set mutated when they change anything worth auditing.
type lumenState struct {
	registry *lumen.Registry
	level    lumen.Level
	events   secondary.EventRepository
	logLimit int
	mutated  bool
}

func checkReservedNames(names []string) error {
	for _, name := range names {
		for _, reserved := range reservedStateNames {
			if name == reserved {
				return fmt.Errorf("state name %q is reserved", name)
			}
		}
	}
	return nil
}

// registerLumenCommands registers the full command vocabulary on d.
// Order matters: the dispatcher runs the first pattern that matches.
func registerLumenCommands(d *command.Dispatcher, s *lumenState) {
	names := s.registry.Names()

	d.MustRegister([]string{"help"}, "Print this help text",
		command.HandlerFunc(func(inv command.Invocation) (bool, string) {
			return true, strings.TrimSuffix(d.Help(), "\n")
		}))

	for i, name := range names {
		state := lumen.StateID(i)
		d.MustRegister([]string{"state", "lumen", "request", name},
			fmt.Sprintf("Request semaphore enter illumination %s state", name),
			s.requestHandler(state))
		d.MustRegister([]string{"state", "lumen", "release", name},
			fmt.Sprintf("Relinquish illumination %s state request", name),
			s.releaseHandler(state))
	}

	d.MustRegister([]string{"state", "lumen", "release", "all"},
		"Relinquish all illumination requested states, returning to default state",
		command.HandlerFunc(s.releaseAll))

	d.MustRegister([]string{"state", "lumen", "print"}, "Print illumination state",
		command.HandlerFunc(func(inv command.Invocation) (bool, string) {
			return true, s.registry.RenderActive()
		}))

	for i, name := range names {
		d.MustRegister([]string{"state", "lumen", "default", name},
			fmt.Sprintf("Set default illumination state to %s", name),
			s.defaultHandler(lumen.StateID(i)))
	}

	d.MustRegister([]string{"state", "lumen", "default", "print"}, "Print the default illumination state",
		command.HandlerFunc(func(inv command.Invocation) (bool, string) {
			return true, s.registry.Name(s.registry.DefaultState())
		}))

	priority := []string{"state", "lumen", "priority"}
	for range names {
		priority = append(priority, "$")
	}
	d.MustRegister(priority, "Set the relative priority of the illumination states, highest priority first",
		command.HandlerFunc(s.setPriority))

	d.MustRegister([]string{"state", "lumen", "priority", "print"},
		"Print the relative priority of the illumination states, highest priority first",
		command.HandlerFunc(func(inv command.Invocation) (bool, string) {
			return true, s.registry.RenderPriority()
		}))

	d.MustRegister([]string{"state", "lumen", "level", "set", "$"},
		"Set the illumination intensity level, 1-9, where 9 is highest",
		command.HandlerFunc(s.setLevel))

	d.MustRegister([]string{"state", "lumen", "level", "print"},
		"Print the illumination intensity level, 1-9, where 9 is highest",
		command.HandlerFunc(func(inv command.Invocation) (bool, string) {
			return true, s.level.String()
		}))

	d.MustRegister([]string{"state", "lumen", "purge", "$"},
		"Relinquish every request for the named illumination state, from all requesters",
		command.HandlerFunc(s.purge))

	d.MustRegister([]string{"state", "lumen", "current"}, "Print the current illumination state",
		command.HandlerFunc(func(inv command.Invocation) (bool, string) {
			return true, s.registry.Name(s.registry.ResolveCurrentState())
		}))

	d.MustRegister([]string{"state", "lumen", "log"}, "Print the recent illumination audit log",
		command.HandlerFunc(s.printLog))
}

func (s *lumenState) requestHandler(state lumen.StateID) command.Handler {
	return command.HandlerFunc(func(inv command.Invocation) (bool, string) {
		added, err := s.registry.RequestState(lumen.NewRequest(state, inv.Source, inv.Timestamp))
		if err != nil {
			return false, errTooManyRequests
		}
		if !added {
			return false, errAlreadyActive
		}
		s.mutated = true
		return true, outputOK
	})
}

func (s *lumenState) releaseHandler(state lumen.StateID) command.Handler {
	return command.HandlerFunc(func(inv command.Invocation) (bool, string) {
		if !s.registry.ReleaseState(lumen.NewRequest(state, inv.Source, inv.Timestamp)) {
			return false, errNotFound
		}
		s.mutated = true
		return true, outputOK
	})
}

func (s *lumenState) defaultHandler(state lumen.StateID) command.Handler {
	return command.HandlerFunc(func(inv command.Invocation) (bool, string) {
		s.registry.SetDefaultState(state)
		s.mutated = true
		return true, outputOK
	})
}

func (s *lumenState) releaseAll(inv command.Invocation) (bool, string) {
	s.registry.ResetState()
	s.mutated = true
	return true, outputOK
}

func (s *lumenState) purge(inv command.Invocation) (bool, string) {
	name, ok := inv.Capture(0)
	if !ok {
		return false, errMissingParameter
	}
	state, ok := s.registry.Lookup(name)
	if !ok {
		return false, errInvalidStateName
	}
	n := s.registry.ReleaseStateAll(state)
	if n == 0 {
		return false, errNotFound
	}
	s.mutated = true
	return true, fmt.Sprintf("released %d", n)
}

// setPriority ranks the states by the order of the captured names, the
// first name getting the highest priority.
func (s *lumenState) setPriority(inv command.Invocation) (bool, string) {
	names := s.registry.Names()
	order := make([]lumen.StateID, 0, len(names))
	seen := make(map[lumen.StateID]bool, len(names))

	for i := range names {
		name, ok := inv.Capture(i)
		if !ok {
			return false, errMissingParameters
		}
		state, ok := s.registry.Lookup(name)
		if !ok {
			return false, errInvalidStateName
		}
		if seen[state] {
			return false, errDuplicateStateName
		}
		seen[state] = true
		order = append(order, state)
	}

	if err := s.registry.SetPriorityOrder(order); err != nil {
		return false, "Error: " + err.Error()
	}
	s.mutated = true
	return true, s.registry.RenderPriority()
}

func (s *lumenState) setLevel(inv command.Invocation) (bool, string) {
	token, ok := inv.Capture(0)
	if !ok {
		return false, errMissingParameter
	}
	level, err := lumen.ParseLevel(token)
	if err != nil {
		return false, errInvalidParameter
	}
	s.level = level
	s.mutated = true
	return true, level.String()
}

func (s *lumenState) printLog(inv command.Invocation) (bool, string) {
	if s.events == nil {
		return false, errAuditLogUnavailable
	}
	records, err := s.events.List(inv.Context, s.logLimit)
	if err != nil {
		return false, errAuditLogUnavailable
	}
	if len(records) == 0 {
		return true, "No log entries"
	}

	lines := make([]string, 0, len(records))
	// Oldest first, like a console scrollback
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		lines = append(lines, fmt.Sprintf("%s %s %s (%s -> %s)",
			r.OccurredAt.UTC().Format(lumen.TimestampFormat), r.Source, r.Command, r.Previous, r.Current))
	}
	return true, strings.Join(lines, "\n")
}
