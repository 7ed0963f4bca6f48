package guard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kgfoundry/sandboxrt/scope"
	"github.com/kgfoundry/sandboxrt/tool"
	"github.com/kgfoundry/sandboxrt/trajectory"
)

// countingTool records invocations and returns a fixed result.
type countingTool struct {
	def    tool.Definition
	calls  int
	result any
	err    error
}

func (t *countingTool) Definition() tool.Definition { return t.def }

func (t *countingTool) Invoke(context.Context, tool.Call) (any, error) {
	t.calls++
	return t.result, t.err
}

func newTestGovernor(t *testing.T, opts Options) (*Governor, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	if opts.RunID == "" {
		opts.RunID = "run-test"
	}
	if opts.Trajectory == nil {
		opts.Trajectory = trajectory.NewLogger(buf)
	}
	g, err := New(opts)
	if err != nil {
		t.Fatalf("new governor: %v", err)
	}
	return g, buf
}

func trajectoryEvents(t *testing.T, buf *bytes.Buffer) []trajectory.Event {
	t.Helper()
	var events []trajectory.Event
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var ev trajectory.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func invokeKw(t *testing.T, tl tool.Tool, kwargs map[string]any) any {
	t.Helper()
	got, err := tl.Invoke(context.Background(), tool.Call{Kwargs: kwargs})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	return got
}

func TestNew_Validation(t *testing.T) {
	traj := trajectory.NewLogger(&bytes.Buffer{})

	if _, err := New(Options{Trajectory: traj}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing RunID: expected ErrConfiguration, got %v", err)
	}
	if _, err := New(Options{RunID: "r"}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing Trajectory: expected ErrConfiguration, got %v", err)
	}
	if _, err := New(Options{RunID: "r", Trajectory: traj, Thresholds: Thresholds{MaxReadsPerHandle: -1}}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("negative threshold: expected ErrConfiguration, got %v", err)
	}
}

func TestGateRead_PerHandleLimit(t *testing.T) {
	g, _ := newTestGovernor(t, Options{Thresholds: Thresholds{MaxReadsPerHandle: 3}})
	inner := &countingTool{
		def:    tool.Definition{Name: "read_window", Classification: tool.ClassRead},
		result: "window text",
	}
	gt := g.Wrap(inner)

	for i := 0; i < 3; i++ {
		got := invokeKw(t, gt, map[string]any{"key": "h:aaaa"})
		if _, rejected := IsRejection(got); rejected {
			t.Fatalf("read %d should be allowed, got %+v", i+1, got)
		}
	}

	got := invokeKw(t, gt, map[string]any{"key": "h:aaaa"})
	rej, ok := IsRejection(got)
	if !ok {
		t.Fatalf("4th read of same handle should be rejected, got %v", got)
	}
	if rej.Error != CodeRepeatedHandleRead {
		t.Errorf("expected %s, got %s", CodeRepeatedHandleRead, rej.Error)
	}
	if rej.Suggestion == "" || rej.Counters == nil {
		t.Error("rejection must carry suggestion and counters")
	}
	if inner.calls != 3 {
		t.Errorf("inner tool should not run on rejection, got %d calls", inner.calls)
	}

	// A different handle is still readable.
	got = invokeKw(t, gt, map[string]any{"key": "h:bbbb"})
	if _, rejected := IsRejection(got); rejected {
		t.Errorf("fresh handle should be readable, got %+v", got)
	}
}

func TestGateRead_PerRunBudget(t *testing.T) {
	g, _ := newTestGovernor(t, Options{Thresholds: Thresholds{MaxHandleReadsPerRun: 2, MaxReadsPerHandle: 10}})
	gt := g.Wrap(&countingTool{
		def:    tool.Definition{Name: "read_window", Classification: tool.ClassRead},
		result: "ok",
	})

	invokeKw(t, gt, map[string]any{"key": "h:1"})
	invokeKw(t, gt, map[string]any{"key": "h:2"})

	got := invokeKw(t, gt, map[string]any{"key": "h:3"})
	rej, ok := IsRejection(got)
	if !ok || rej.Error != CodeHandleReadBudget {
		t.Fatalf("expected %s, got %v", CodeHandleReadBudget, got)
	}
	if rej.Counters["handle_reads_total"] != 3 {
		t.Errorf("rejected reads still count, got %d", rej.Counters["handle_reads_total"])
	}
}

func TestGateRead_ReportBudget(t *testing.T) {
	g, _ := newTestGovernor(t, Options{Thresholds: Thresholds{MaxReportReads: 1, MaxReadsPerHandle: 10}})
	gt := g.Wrap(&countingTool{
		def: tool.Definition{
			Name:           "read_report",
			Classification: tool.ClassRead,
			BudgetTag:      "report",
		},
		result: "findings",
	})

	if _, rejected := IsRejection(invokeKw(t, gt, map[string]any{"key": "h:r1"})); rejected {
		t.Fatal("first report read should be allowed")
	}
	rej, ok := IsRejection(invokeKw(t, gt, map[string]any{"key": "h:r2"}))
	if !ok || rej.Error != CodeHandleReadBudget {
		t.Fatalf("expected report budget rejection, got %+v", rej)
	}
}

func TestGateProgressCheck_RequiresGraphDelta(t *testing.T) {
	g, _ := newTestGovernor(t, Options{Thresholds: Thresholds{MaxValidationsWithoutDelta: 2}})
	check := g.Wrap(&countingTool{
		def:    tool.Definition{Name: "graph_validate", Classification: tool.ClassProgressCheck},
		result: map[string]any{"issue_count": 0},
	})
	mutate := g.Wrap(&countingTool{
		def:    tool.Definition{Name: "graph_upsert", Classification: tool.ClassMutating},
		result: "ok",
	})

	// Two checks pass, third and fourth are rejected.
	for i := 0; i < 2; i++ {
		if _, rejected := IsRejection(invokeKw(t, check, nil)); rejected {
			t.Fatalf("check %d should be allowed", i+1)
		}
	}
	for i := 0; i < 2; i++ {
		rej, ok := IsRejection(invokeKw(t, check, nil))
		if !ok || rej.Error != CodeValidationNoDelta {
			t.Fatalf("check %d should be rejected, got %+v", i+3, rej)
		}
	}

	// A successful mutation resets the budget.
	invokeKw(t, mutate, map[string]any{"id": "gen:x"})
	if _, rejected := IsRejection(invokeKw(t, check, nil)); rejected {
		t.Error("check after mutation should be allowed")
	}

	snap := g.Snapshot()
	if snap.GraphRevision != 1 {
		t.Errorf("expected graph revision 1, got %d", snap.GraphRevision)
	}
}

func TestGateMutation_Scope(t *testing.T) {
	g, _ := newTestGovernor(t, Options{Scope: scope.New([]string{"A"}, "")})
	inner := &countingTool{
		def:    tool.Definition{Name: "graph_upsert", Classification: tool.ClassMutating},
		result: "ok",
	}
	gt := g.Wrap(inner)

	if _, rejected := IsRejection(invokeKw(t, gt, map[string]any{"id": "A"})); rejected {
		t.Fatal("anchor mutation should be allowed")
	}
	if _, rejected := IsRejection(invokeKw(t, gt, map[string]any{"id": "gen:new"})); rejected {
		t.Fatal("generated-namespace mutation should be allowed")
	}

	got := invokeKw(t, gt, map[string]any{"id": "B"})
	rej, ok := IsRejection(got)
	if !ok || rej.Error != CodeNodeNotAllowedInScope {
		t.Fatalf("expected scope rejection, got %v", got)
	}
	if len(rej.Anchors) != 1 || rej.Anchors[0] != "A" {
		t.Errorf("scope rejection must list anchors, got %v", rej.Anchors)
	}
	if inner.calls != 2 {
		t.Errorf("rejected mutation must not run, got %d calls", inner.calls)
	}

	snap := g.Snapshot()
	if snap.GraphRevision != 2 {
		t.Errorf("only successful mutations advance the revision, got %d", snap.GraphRevision)
	}
}

func TestGateMutation_NilScopeUnrestricted(t *testing.T) {
	g, _ := newTestGovernor(t, Options{})
	gt := g.Wrap(&countingTool{
		def:    tool.Definition{Name: "graph_upsert", Classification: tool.ClassMutating},
		result: "ok",
	})
	if _, rejected := IsRejection(invokeKw(t, gt, map[string]any{"id": "anything"})); rejected {
		t.Error("nil scope must not restrict mutation")
	}
}

func TestInvoke_ErrorIsLoggedAndReRaised(t *testing.T) {
	g, buf := newTestGovernor(t, Options{})
	wantErr := errors.New("backend unavailable")
	gt := g.Wrap(&countingTool{
		def: tool.Definition{Name: "graph_get", Classification: tool.ClassPlain},
		err: wantErr,
	})

	_, err := gt.Invoke(context.Background(), tool.Call{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected inner error re-raised, got %v", err)
	}

	events := trajectoryEvents(t, buf)
	if len(events) != 2 {
		t.Fatalf("expected tool_call + tool_result, got %d events", len(events))
	}
	if events[1].Type != trajectory.EventToolResult {
		t.Fatalf("expected tool_result second, got %q", events[1].Type)
	}
	errField, _ := events[1].Data["error"].(string)
	if !strings.Contains(errField, "backend unavailable") {
		t.Errorf("tool_result should record the error, got %q", errField)
	}
}

func TestInvoke_EmitsCallThenResult(t *testing.T) {
	g, buf := newTestGovernor(t, Options{})
	gt := g.Wrap(&countingTool{
		def:    tool.Definition{Name: "graph_get", Classification: tool.ClassPlain},
		result: map[string]any{"id": "A"},
	})

	invokeKw(t, gt, map[string]any{"id": "A"})

	events := trajectoryEvents(t, buf)
	if len(events) != 2 || events[0].Type != trajectory.EventToolCall || events[1].Type != trajectory.EventToolResult {
		t.Fatalf("expected [tool_call tool_result], got %v", events)
	}
	kwargs, _ := events[0].Data["kwargs"].(map[string]any)
	if kwargs["id"] != "A" {
		t.Errorf("tool_call should record kwarg previews, got %v", kwargs)
	}
	if events[1].Data["error"] != nil {
		t.Errorf("successful result should carry error=null, got %v", events[1].Data["error"])
	}
	if events[1].Data["result_preview"] == "" {
		t.Error("result preview missing")
	}
}

func TestInvoke_CountsLargeReturns(t *testing.T) {
	g, _ := newTestGovernor(t, Options{Thresholds: Thresholds{LargeResultBytes: 10}})
	gt := g.Wrap(&countingTool{
		def:    tool.Definition{Name: "graph_get", Classification: tool.ClassPlain},
		result: strings.Repeat("x", 100),
	})

	invokeKw(t, gt, nil)
	if g.Snapshot().LargeReturns != 1 {
		t.Errorf("expected 1 large return, got %d", g.Snapshot().LargeReturns)
	}
}

func TestWrapRegistry_WrapsEveryTool(t *testing.T) {
	g, buf := newTestGovernor(t, Options{})
	reg := tool.NewRegistry()
	_ = reg.Register(&countingTool{def: tool.Definition{Name: "a", Classification: tool.ClassPlain}, result: 1})
	_ = reg.Register(&countingTool{def: tool.Definition{Name: "b", Classification: tool.ClassPlain}, result: 2})

	wrapped, err := g.WrapRegistry(reg)
	if err != nil {
		t.Fatalf("wrap registry: %v", err)
	}
	if wrapped.Count() != 2 {
		t.Fatalf("expected 2 wrapped tools, got %d", wrapped.Count())
	}
	invokeKw(t, wrapped.Get("a"), nil)
	if got := len(trajectoryEvents(t, buf)); got != 2 {
		t.Errorf("wrapped tool should emit events, got %d", got)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	g, _ := newTestGovernor(t, Options{})
	gt := g.Wrap(&countingTool{
		def:    tool.Definition{Name: "read_window", Classification: tool.ClassRead},
		result: "ok",
	})
	invokeKw(t, gt, map[string]any{"key": "h:1"})

	snap := g.Snapshot()
	snap.HandleReadsByKey["h:1"] = 99
	if g.Snapshot().HandleReadsByKey["h:1"] != 1 {
		t.Error("snapshot must not alias internal state")
	}
}
