package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/kgfoundry/sandboxrt/tool"
)

// DefaultOutputLimit bounds the combined stdout/stderr text returned per
// turn.
const DefaultOutputLimit = 4096

// outputTruncationMarker is appended when turn output exceeds the limit.
const outputTruncationMarker = "\n...[output truncated]"

// threadCtxKey is the thread-local slot carrying the turn's context into
// tool builtins.
const threadCtxKey = "sandboxrt.context"

// fileOptions enables the imperative Starlark dialect submissions are
// written in. GlobalReassign is required for namespace persistence across
// turns.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Terminal is the structured value produced by a termination primitive.
type Terminal struct {
	// Fields carries the keyword fields passed to SUBMIT. Nil for
	// FINAL_VAR terminations.
	Fields map[string]any

	// FinalText is the final-answer slot content.
	FinalText string
}

// Outcome is the result of executing one submission.
type Outcome struct {
	// Output is the captured print output, including recovered runtime
	// error lines, truncated to the configured limit.
	Output string

	// Terminal is non-nil when the submission ended the run.
	Terminal *Terminal
}

// Config configures a Sandbox.
type Config struct {
	// Tools is the registry whose current contents are re-bound into the
	// namespace before every execution. Required.
	Tools *tool.Registry

	// OutputLimit caps per-turn output text. Zero selects
	// DefaultOutputLimit.
	OutputLimit int

	// Name labels the Starlark thread in error messages. Optional.
	Name string
}

// Sandbox is the persistent execution environment for one run. Exactly one
// Sandbox exists per run; it is not shared across runs.
//
// Contract:
// - Concurrency: one submission executes at a time; Sandbox is not safe
//   for concurrent Execute calls (the runtime is turn-based by design).
// - Errors: Execute returns typed errors only for static failures and
//   terminal protocol violations; runtime failures are recovered into the
//   Outcome.
type Sandbox struct {
	tools       *tool.Registry
	name        string
	outputLimit int

	started bool
	shut    bool
	ns      starlark.StringDict
	final   *string

	// curOut is the output sink of the in-flight Execute call.
	curOut *strings.Builder
}

// New creates a Sandbox.
func New(cfg Config) (*Sandbox, error) {
	if cfg.Tools == nil {
		return nil, errors.New("sandbox: Tools registry is required")
	}
	if cfg.OutputLimit == 0 {
		cfg.OutputLimit = DefaultOutputLimit
	}
	if cfg.Name == "" {
		cfg.Name = "sandbox"
	}
	return &Sandbox{
		tools:       cfg.Tools,
		name:        cfg.Name,
		outputLimit: cfg.OutputLimit,
	}, nil
}

// Start initializes the persistent namespace. Idempotent: an already
// initialized namespace is never cleared.
func (s *Sandbox) Start() {
	if s.started {
		return
	}
	s.started = true
	s.ns = starlark.StringDict{}
	s.ns["SUBMIT"] = s.submitBuiltin()
	s.ns["FINAL_VAR"] = s.finalVarBuiltin()
}

// Shutdown discards the namespace and clears the final-answer slot. The
// sandbox cannot be used afterwards. Safe to call multiple times.
func (s *Sandbox) Shutdown() {
	s.started = false
	s.shut = true
	s.ns = nil
	s.final = nil
}

// Final returns the final-answer slot.
func (s *Sandbox) Final() (string, bool) {
	if s.final == nil {
		return "", false
	}
	return *s.final, true
}

// Execute runs one code submission against the persistent namespace.
//
// The current tool set is re-bound before execution. Namespace mutations
// persist for subsequent calls. See the package documentation for the
// error taxonomy.
func (s *Sandbox) Execute(ctx context.Context, code string) (Outcome, error) {
	if s.shut {
		return Outcome{}, ErrShutDown
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	s.Start()

	f, err := fileOptions.Parse(s.name+".star", code, 0)
	if err != nil {
		return Outcome{}, asSyntaxError(err)
	}

	// Re-bind the current tool set so the host can swap implementations
	// between turns.
	for name, t := range s.tools.All() {
		s.ns[name] = s.toolBuiltin(name, t)
	}

	var out strings.Builder
	s.curOut = &out
	defer func() { s.curOut = nil }()

	thread := &starlark.Thread{
		Name: s.name,
		Print: func(_ *starlark.Thread, msg string) {
			out.WriteString(msg)
			out.WriteByte('\n')
		},
	}
	thread.SetLocal(threadCtxKey, ctx)

	stop := watchContext(ctx, thread)
	execErr := starlark.ExecREPLChunk(f, thread, s.ns)
	stop()

	if execErr != nil {
		outcome, err := s.handleExecError(ctx, execErr, &out)
		if outcome != nil || err != nil {
			if outcome == nil {
				return Outcome{Output: s.boundedOutput(&out)}, err
			}
			return *outcome, err
		}
	}

	outcome := Outcome{Output: s.boundedOutput(&out)}
	if s.final != nil {
		outcome.Terminal = &Terminal{FinalText: *s.final}
	}
	return outcome, nil
}

// handleExecError classifies an execution error. It returns a non-nil
// outcome or error for terminal paths; for recovered runtime failures it
// appends an error line to out and returns (nil, nil).
func (s *Sandbox) handleExecError(ctx context.Context, execErr error, out *strings.Builder) (*Outcome, error) {
	// Host cancellation wins over whatever the interpreter reported.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var submit *submitSignal
	if errors.As(execErr, &submit) {
		text := stringifyFields(submit.fields)
		s.final = &text
		return &Outcome{
			Output:   s.boundedOutput(out),
			Terminal: &Terminal{Fields: submit.fields, FinalText: text},
		}, nil
	}

	var proto *ProtocolError
	if errors.As(execErr, &proto) {
		return nil, proto
	}

	var rl resolve.ErrorList
	if errors.As(execErr, &rl) {
		return nil, asSyntaxError(execErr)
	}

	// Recoverable runtime failure: report it in the turn output so the
	// run survives to the next turn.
	var evalErr *starlark.EvalError
	if errors.As(execErr, &evalErr) {
		fmt.Fprintf(out, "Error: %s\n", evalErr.Msg)
	} else {
		fmt.Fprintf(out, "Error: %v\n", execErr)
	}
	return nil, nil
}

func (s *Sandbox) boundedOutput(out *strings.Builder) string {
	text := out.String()
	if len(text) <= s.outputLimit {
		return text
	}
	return text[:s.outputLimit] + outputTruncationMarker
}

// asSyntaxError converts parse and resolve failures into *SyntaxError.
func asSyntaxError(err error) error {
	var se syntax.Error
	if errors.As(err, &se) {
		return &SyntaxError{
			Msg:    se.Msg,
			Line:   int(se.Pos.Line),
			Column: int(se.Pos.Col),
			Err:    err,
		}
	}
	var rl resolve.ErrorList
	if errors.As(err, &rl) && len(rl) > 0 {
		return &SyntaxError{
			Msg:    rl[0].Msg,
			Line:   int(rl[0].Pos.Line),
			Column: int(rl[0].Pos.Col),
			Err:    err,
		}
	}
	return &SyntaxError{Msg: err.Error(), Err: err}
}

// watchContext cancels the Starlark thread when ctx is done. The returned
// stop function must be called when execution finishes.
func watchContext(ctx context.Context, thread *starlark.Thread) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()
	return func() { close(done) }
}

// stringifyFields renders SUBMIT fields for the final-answer slot. A
// single string field is stored verbatim; anything else serializes to
// JSON.
func stringifyFields(fields map[string]any) string {
	if len(fields) == 1 {
		for _, v := range fields {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf("%v", fields)
	}
	return string(raw)
}

func ctxFromThread(thread *starlark.Thread) context.Context {
	if v := thread.Local(threadCtxKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}
