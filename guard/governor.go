package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kgfoundry/sandboxrt/scope"
	"github.com/kgfoundry/sandboxrt/tool"
	"github.com/kgfoundry/sandboxrt/trajectory"
)

// Governor wraps the tool set of one run. Wrapped tools emit trajectory
// events around every invocation and are gated by the run's counters.
type Governor struct {
	runID      string
	thresholds Thresholds
	state      *State
	scope      *scope.Set
	traj       *trajectory.Logger
	log        *slog.Logger
}

// Options configures a Governor.
type Options struct {
	// RunID identifies the run in trajectory events. Required.
	RunID string

	// Thresholds are the budget ceilings. Zero fields take defaults.
	Thresholds Thresholds

	// Scope restricts mutating calls. Nil means mutation is unrestricted
	// (tasks without a mutation scope).
	Scope *scope.Set

	// Trajectory receives tool_call/tool_result events. Required.
	Trajectory *trajectory.Logger

	// Logger receives diagnostics. Nil disables them.
	Logger *slog.Logger
}

// New creates a Governor. Invalid thresholds or missing required options
// are programmer errors and fail construction.
func New(opts Options) (*Governor, error) {
	if opts.RunID == "" {
		return nil, fmt.Errorf("%w: RunID is required", ErrConfiguration)
	}
	if opts.Trajectory == nil {
		return nil, fmt.Errorf("%w: Trajectory is required", ErrConfiguration)
	}
	if err := opts.Thresholds.validate(); err != nil {
		return nil, err
	}
	opts.Thresholds.applyDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Governor{
		runID:      opts.RunID,
		thresholds: opts.Thresholds,
		state:      newState(),
		scope:      opts.Scope,
		traj:       opts.Trajectory,
		log:        logger,
	}, nil
}

// Snapshot returns a copy of the run's counters.
func (g *Governor) Snapshot() Snapshot {
	return g.state.snapshot()
}

// Wrap returns a tool whose Invoke is governed: logged, counted, and
// gated. The wrapped tool keeps the original definition.
func (g *Governor) Wrap(t tool.Tool) tool.Tool {
	return &governedTool{gov: g, inner: t}
}

// WrapRegistry returns a new registry with every tool wrapped.
func (g *Governor) WrapRegistry(reg *tool.Registry) (*tool.Registry, error) {
	out := tool.NewRegistry()
	for _, name := range reg.Names() {
		if err := out.Register(g.Wrap(reg.Get(name))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type governedTool struct {
	gov   *Governor
	inner tool.Tool
}

func (t *governedTool) Definition() tool.Definition { return t.inner.Definition() }

func (t *governedTool) Invoke(ctx context.Context, call tool.Call) (any, error) {
	g := t.gov
	def := t.inner.Definition()

	g.emitCall(def.Name, call)

	if rej, blocked := g.gate(def, call); blocked {
		size, prev := summarize(rej)
		g.emitResult(def.Name, "", size, prev)
		g.log.DebugContext(ctx, "tool call rejected",
			"run_id", g.runID, "tool", def.Name, "code", rej.Error)
		return rej, nil
	}

	result, err := t.inner.Invoke(ctx, call)
	if err != nil {
		// Record the failure, then re-raise; the sandbox's runtime-error
		// path turns it into a recoverable error value for the agent.
		g.emitResult(def.Name, fmt.Sprintf("%T: %v", err, err), 0, "")
		return nil, err
	}

	size, prev := summarize(result)
	if size > g.thresholds.LargeResultBytes {
		g.state.LargeReturns++
	}
	g.emitResult(def.Name, "", size, prev)
	g.afterSuccess(def)
	return result, nil
}

// gate applies the classification-specific budget checks. It returns the
// rejection and true when the call must not be executed. Counters are
// updated even for rejected calls; they never shrink within a run.
func (g *Governor) gate(def tool.Definition, call tool.Call) (Rejection, bool) {
	switch def.Classification {
	case tool.ClassRead:
		return g.gateRead(def, call)
	case tool.ClassProgressCheck:
		return g.gateProgressCheck(def)
	case tool.ClassMutating:
		return g.gateMutation(def, call)
	}
	return Rejection{}, false
}

func (g *Governor) gateRead(def tool.Definition, call tool.Call) (Rejection, bool) {
	key, _ := call.String(def.Target())

	g.state.HandleReadsTotal++
	if key != "" {
		g.state.HandleReadsByKey[key]++
	}
	if def.BudgetTag == "report" {
		g.state.ReportReads++
	}

	counters := map[string]int{
		"handle_reads_total":   g.state.HandleReadsTotal,
		"reads_for_handle":     g.state.HandleReadsByKey[key],
		"max_reads_per_run":    g.thresholds.MaxHandleReadsPerRun,
		"max_reads_per_handle": g.thresholds.MaxReadsPerHandle,
	}

	if g.state.HandleReadsTotal > g.thresholds.MaxHandleReadsPerRun {
		return Rejection{
			Error:      CodeHandleReadBudget,
			Tool:       def.Name,
			Suggestion: "the per-run read budget is spent; work from previously read windows or submit your result",
			Counters:   counters,
		}, true
	}
	if def.BudgetTag == "report" && g.state.ReportReads > g.thresholds.MaxReportReads {
		counters["report_reads"] = g.state.ReportReads
		counters["max_report_reads"] = g.thresholds.MaxReportReads
		return Rejection{
			Error:      CodeHandleReadBudget,
			Tool:       def.Name,
			Suggestion: "the report read budget is spent; act on the findings already read",
			Counters:   counters,
		}, true
	}
	if key != "" && g.state.HandleReadsByKey[key] > g.thresholds.MaxReadsPerHandle {
		return Rejection{
			Error:      CodeRepeatedHandleRead,
			Tool:       def.Name,
			Suggestion: fmt.Sprintf("handle %s was already read %d times; reuse the windows you have instead of re-reading", key, g.thresholds.MaxReadsPerHandle),
			Counters:   counters,
		}, true
	}
	return Rejection{}, false
}

func (g *Governor) gateProgressCheck(def tool.Definition) (Rejection, bool) {
	if g.state.GraphRevision != g.state.lastCheckRevision {
		g.state.ValidationsWithoutDelta = 0
		g.state.lastCheckRevision = g.state.GraphRevision
	}
	g.state.ValidationsWithoutDelta++

	if g.state.ValidationsWithoutDelta > g.thresholds.MaxValidationsWithoutDelta {
		return Rejection{
			Error:      CodeValidationNoDelta,
			Tool:       def.Name,
			Suggestion: "nothing changed since the last check; mutate the graph before validating again",
			Counters: map[string]int{
				"validations_without_delta":     g.state.ValidationsWithoutDelta,
				"max_validations_without_delta": g.thresholds.MaxValidationsWithoutDelta,
				"graph_revision":                g.state.GraphRevision,
			},
		}, true
	}
	return Rejection{}, false
}

func (g *Governor) gateMutation(def tool.Definition, call tool.Call) (Rejection, bool) {
	if g.scope == nil {
		return Rejection{}, false
	}
	target, _ := call.String(def.Target())
	decision := g.scope.Check(target)
	if decision.Allowed {
		return Rejection{}, false
	}
	return Rejection{
		Error:      CodeNodeNotAllowedInScope,
		Tool:       def.Name,
		Suggestion: fmt.Sprintf("%s; target an anchor entity or create one under the %q namespace", decision.Reason, g.scope.GeneratedPrefix()),
		Counters: map[string]int{
			"graph_revision": g.state.GraphRevision,
		},
		Anchors: g.scope.Anchors(),
	}, true
}

// afterSuccess updates counters that only move on successful calls.
func (g *Governor) afterSuccess(def tool.Definition) {
	if def.Classification == tool.ClassMutating {
		g.state.GraphRevision++
		g.state.ValidationsWithoutDelta = 0
	}
}

func (g *Governor) emitCall(name string, call tool.Call) {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = trajectory.Preview(stringify(a), 0)
	}
	kwargs := make(map[string]string, len(call.Kwargs))
	for k, v := range call.Kwargs {
		kwargs[k] = trajectory.Preview(stringify(v), 0)
	}
	if err := g.traj.ToolCall(g.runID, name, args, kwargs); err != nil {
		g.log.Error("trajectory append failed", "run_id", g.runID, "tool", name, "error", err)
	}
}

func (g *Governor) emitResult(name, errMsg string, size int, preview string) {
	if err := g.traj.ToolResult(g.runID, name, errMsg, size, preview); err != nil {
		g.log.Error("trajectory append failed", "run_id", g.runID, "tool", name, "error", err)
	}
}

// summarize serializes a result to measure it and produce a bounded
// preview. Values that cannot be marshaled fall back to fmt formatting.
func summarize(v any) (size int, preview string) {
	s := stringify(v)
	return len(s), trajectory.Preview(s, 0)
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
