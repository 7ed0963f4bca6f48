package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kgfoundry/sandboxrt/guard"
	"github.com/kgfoundry/sandboxrt/handle"
	"github.com/kgfoundry/sandboxrt/tool"
	"github.com/kgfoundry/sandboxrt/trajectory"
)

// ErrConfiguration indicates invalid session options.
var ErrConfiguration = errors.New("session configuration error")

// Options configures a Session.
type Options struct {
	// Store is the handle store backing the built-in stash/read tools.
	// Required. May be shared across concurrent sessions.
	Store handle.Store

	// Trajectory receives the run's event log. Required: the trajectory
	// is the audit record of the run, not optional diagnostics.
	Trajectory *trajectory.Logger

	// Tools are the domain tools for this run, already classified. Each
	// session must receive its own tool instances; tools must not share
	// mutable state across runs.
	Tools []tool.Tool

	// Anchors are the entity IDs mutating calls may target. A nil slice
	// leaves mutation unrestricted; a non-nil (even empty) slice enables
	// the scope guard.
	Anchors []string

	// GeneratedPrefix overrides the reserved namespace for agent-created
	// entities. Empty selects scope.DefaultGeneratedPrefix.
	GeneratedPrefix string

	// Thresholds are the guard budgets. Zero fields take defaults.
	Thresholds guard.Thresholds

	// Logger receives diagnostics. Nil disables them.
	Logger *slog.Logger

	// OutputLimit caps per-turn sandbox output. Zero selects the sandbox
	// default.
	OutputLimit int

	// RunID identifies the run. Empty generates a UUID.
	RunID string
}

func (o *Options) validate() error {
	if o.Store == nil {
		return fmt.Errorf("%w: Store is required", ErrConfiguration)
	}
	if o.Trajectory == nil {
		return fmt.Errorf("%w: Trajectory is required", ErrConfiguration)
	}
	return nil
}
