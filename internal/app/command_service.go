package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/sigos/internal/core/command"
	"github.com/example/sigos/internal/core/lumen"
	"github.com/example/sigos/internal/ctxutil"
	"github.com/example/sigos/internal/ports/primary"
	"github.com/example/sigos/internal/ports/secondary"
)

// LumenOptions configures the lumen state machine behind the command service.
type LumenOptions struct {
	StateNames   []string // enumeration order; later names rank higher by default
	DefaultState string   // empty means the first name
	Priority     []string // optional highest-first ordering of every state
	Level        int      // initial brightness; zero means lumen.DefaultLevel
	MaxRequests  int      // zero means unlimited
	LogLimit     int      // audit entries kept and printed; zero keeps all
}

// CommandServiceImpl implements the CommandService interface.
// A single mutex serialises dispatch, so the registry sees one command at a time.
type CommandServiceImpl struct {
	mu         sync.Mutex
	dispatcher *command.Dispatcher
	state      *lumenState
	events     secondary.EventRepository
	lamp       secondary.Lamp
	logger     *log.Logger
	now        func() time.Time
}

// NewCommandService creates a CommandService with the full lumen vocabulary
// registered. events and lamp may be nil.
func NewCommandService(opts LumenOptions, events secondary.EventRepository, lamp secondary.Lamp, logger *log.Logger) (*CommandServiceImpl, error) {
	if len(opts.StateNames) < 2 {
		return nil, errors.New("at least two lumen states are required")
	}
	if err := checkReservedNames(opts.StateNames); err != nil {
		return nil, err
	}

	var regOpts []lumen.Option
	if opts.MaxRequests > 0 {
		regOpts = append(regOpts, lumen.WithCapacity(opts.MaxRequests))
	}
	registry, err := lumen.NewRegistry(opts.StateNames, regOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create lumen registry: %w", err)
	}

	if opts.DefaultState != "" {
		def, ok := registry.Lookup(opts.DefaultState)
		if !ok {
			return nil, fmt.Errorf("%w: default %q", lumen.ErrUnknownState, opts.DefaultState)
		}
		registry.SetDefaultState(def)
	}

	if len(opts.Priority) > 0 {
		order := make([]lumen.StateID, 0, len(opts.Priority))
		for _, name := range opts.Priority {
			id, ok := registry.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("%w: priority %q", lumen.ErrUnknownState, name)
			}
			order = append(order, id)
		}
		if err := registry.SetPriorityOrder(order); err != nil {
			return nil, fmt.Errorf("invalid priority order: %w", err)
		}
	}

	level := lumen.DefaultLevel
	if opts.Level != 0 {
		level = lumen.Level(opts.Level)
		if !level.Valid() {
			return nil, fmt.Errorf("%w: got %d", lumen.ErrInvalidLevel, opts.Level)
		}
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	state := &lumenState{
		registry: registry,
		level:    level,
		events:   events,
		logLimit: opts.LogLimit,
	}
	dispatcher := command.NewDispatcher()
	registerLumenCommands(dispatcher, state)
	dispatcher.Seal()

	return &CommandServiceImpl{
		dispatcher: dispatcher,
		state:      state,
		events:     events,
		lamp:       lamp,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Execute dispatches one line. Audit and lamp failures are logged and do not
// change the response: the command has already taken effect.
func (s *CommandServiceImpl) Execute(ctx context.Context, req primary.ExecuteRequest) (*primary.ExecuteResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.registry.ResolveCurrentState()
	beforeLevel := s.state.level
	s.state.mutated = false

	res := s.dispatcher.Dispatch(ctx, req.Line, ts, req.Source)

	after := s.state.registry.ResolveCurrentState()
	session := ctxutil.SessionFromContext(ctx)

	if s.state.mutated {
		s.record(ctx, &secondary.EventRecord{
			OccurredAt: ts,
			Source:     req.Source.String(),
			Command:    joinWords(req.Line),
			Previous:   s.state.registry.Name(before),
			Current:    s.state.registry.Name(after),
		})
	}

	if after != before || s.state.level != beforeLevel {
		s.logger.Printf("session=%s lumen %s -> %s level=%d", session, s.state.registry.Name(before), s.state.registry.Name(after), s.state.level)
		s.applyLamp(ctx)
	}

	return &primary.ExecuteResponse{
		Matched:  res.Matched,
		Success:  res.Success,
		Output:   res.Output,
		Response: command.FormatResponse(res),
	}, nil
}

// Help returns the description of every registered command.
func (s *CommandServiceImpl) Help() string {
	return s.dispatcher.Help()
}

// Snapshot returns the current lumen state.
func (s *CommandServiceImpl) Snapshot(ctx context.Context) (*primary.LumenSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := s.state.registry
	snap := &primary.LumenSnapshot{
		Current: reg.Name(reg.ResolveCurrentState()),
		Default: reg.Name(reg.DefaultState()),
		Level:   int(s.state.level),
	}
	for _, id := range reg.PriorityOrder() {
		snap.Priority = append(snap.Priority, reg.Name(id))
	}
	for _, r := range reg.Active() {
		snap.Active = append(snap.Active, &primary.ActiveRequest{
			State:     reg.Name(r.State),
			Source:    r.Source.String(),
			Timestamp: r.Timestamp,
		})
	}
	return snap, nil
}

// ApplyLamp pushes the current state to the lamp, e.g. at startup.
func (s *CommandServiceImpl) ApplyLamp(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLamp(ctx)
}

// Helper methods

func (s *CommandServiceImpl) applyLamp(ctx context.Context) {
	if s.lamp == nil {
		return
	}
	reg := s.state.registry
	err := s.lamp.Apply(ctx, secondary.LampState{
		State: reg.Name(reg.ResolveCurrentState()),
		Level: int(s.state.level),
	})
	if err != nil {
		s.logger.Printf("session=%s lamp apply failed: %v", ctxutil.SessionFromContext(ctx), err)
	}
}

func (s *CommandServiceImpl) record(ctx context.Context, event *secondary.EventRecord) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Printf("session=%s audit append failed: %v", ctxutil.SessionFromContext(ctx), err)
		return
	}
	if s.state.logLimit > 0 {
		if _, err := s.events.Prune(ctx, s.state.logLimit); err != nil {
			s.logger.Printf("session=%s audit prune failed: %v", ctxutil.SessionFromContext(ctx), err)
		}
	}
}

// joinWords normalises whitespace so audit entries read like the pattern.
func joinWords(line string) string {
	return strings.Join(command.Tokens(line), " ")
}

// Ensure CommandServiceImpl implements the interface
var _ primary.CommandService = (*CommandServiceImpl)(nil)
