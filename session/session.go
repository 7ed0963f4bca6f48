package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kgfoundry/sandboxrt/guard"
	"github.com/kgfoundry/sandboxrt/sandbox"
	"github.com/kgfoundry/sandboxrt/scope"
	"github.com/kgfoundry/sandboxrt/tool"
	"github.com/kgfoundry/sandboxrt/trajectory"
)

// ErrRunEnded is returned by Execute after the run reached a terminal
// state or was closed.
var ErrRunEnded = errors.New("run already ended")

// Session owns the state of one agent run. It is not shared across runs;
// concurrent runs each construct their own Session.
type Session struct {
	runID string
	sb    *sandbox.Sandbox
	gov   *guard.Governor
	traj  *trajectory.Logger
	log   *slog.Logger

	turn     int
	terminal *sandbox.Terminal
	closed   bool
}

// New constructs a Session and emits the run_start event.
func New(opts Options) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var scopeSet *scope.Set
	if opts.Anchors != nil {
		scopeSet = scope.New(opts.Anchors, opts.GeneratedPrefix)
	}

	registry := tool.NewRegistry()
	for _, t := range storeTools(opts.Store) {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}
	for _, t := range opts.Tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	gov, err := guard.New(guard.Options{
		RunID:      opts.RunID,
		Thresholds: opts.Thresholds,
		Scope:      scopeSet,
		Trajectory: opts.Trajectory,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	governed, err := gov.WrapRegistry(registry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	sb, err := sandbox.New(sandbox.Config{
		Tools:       governed,
		OutputLimit: opts.OutputLimit,
		Name:        "run-" + opts.RunID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	sb.Start()

	startData := map[string]any{"tools": governed.Names()}
	if scopeSet != nil {
		startData["anchors"] = scopeSet.Anchors()
		startData["generated_prefix"] = scopeSet.GeneratedPrefix()
	}
	if err := opts.Trajectory.RunStart(opts.RunID, startData); err != nil {
		return nil, fmt.Errorf("write run_start: %w", err)
	}

	logger.Info("run started", "run_id", opts.RunID, "tools", governed.Count())

	return &Session{
		runID: opts.RunID,
		sb:    sb,
		gov:   gov,
		traj:  opts.Trajectory,
		log:   logger,
	}, nil
}

// RunID returns the run identifier.
func (s *Session) RunID() string { return s.runID }

// Execute runs one code submission. Turn numbering starts at 1. After a
// terminal outcome, Execute fails with ErrRunEnded.
func (s *Session) Execute(ctx context.Context, code string) (sandbox.Outcome, error) {
	if s.closed || s.terminal != nil {
		return sandbox.Outcome{}, ErrRunEnded
	}

	s.turn++
	if err := s.traj.Iteration(s.runID, s.turn); err != nil {
		s.log.Error("trajectory append failed", "run_id", s.runID, "error", err)
	}

	outcome, err := s.sb.Execute(ctx, code)
	if err != nil {
		s.log.Warn("submission failed", "run_id", s.runID, "turn", s.turn, "error", err)
		return outcome, err
	}

	if outcome.Terminal != nil {
		s.terminal = outcome.Terminal
		data := map[string]any{
			"status": "submitted",
			"final":  trajectory.Preview(outcome.Terminal.FinalText, 0),
			"turns":  s.turn,
		}
		if err := s.traj.RunComplete(s.runID, data); err != nil {
			s.log.Error("trajectory append failed", "run_id", s.runID, "error", err)
		}
		s.log.Info("run submitted", "run_id", s.runID, "turns", s.turn)
	}
	return outcome, nil
}

// Final returns the final-answer slot.
func (s *Session) Final() (string, bool) {
	return s.sb.Final()
}

// GuardSnapshot returns a copy of the run's governance counters.
func (s *Session) GuardSnapshot() guard.Snapshot {
	return s.gov.Snapshot()
}

// Close shuts the sandbox down. If the run had not reached a terminal
// state, a run_complete event with status shut_down is emitted. Idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.terminal == nil {
		if err := s.traj.RunComplete(s.runID, map[string]any{
			"status": "shut_down",
			"turns":  s.turn,
		}); err != nil {
			s.log.Error("trajectory append failed", "run_id", s.runID, "error", err)
		}
	}
	s.sb.Shutdown()
	return nil
}
