package tool

import (
	"context"
	"encoding/json"
)

// Classification tags a tool for the governance layer.
type Classification string

const (
	ClassRead          Classification = "read"
	ClassProgressCheck Classification = "progress-check"
	ClassMutating      Classification = "mutating"
	ClassPlain         Classification = "plain"
)

// Valid reports whether c is one of the recognized classifications.
func (c Classification) Valid() bool {
	switch c {
	case ClassRead, ClassProgressCheck, ClassMutating, ClassPlain:
		return true
	}
	return false
}

// Definition describes a tool to the runtime and the governance layer.
type Definition struct {
	// Name is the identifier the tool is bound to inside the sandbox
	// namespace. Required, unique per registry.
	Name string

	// Description is shown to the agent in prompt material. Optional.
	Description string

	// Params names the tool's parameters in positional order. The sandbox
	// uses it to map positional arguments onto keywords, so tools only
	// ever see keyword arguments. Optional.
	Params []string

	// Classification selects the governance gates applied to this tool.
	// Zero value is treated as ClassPlain.
	Classification Classification

	// TargetField names the keyword argument carrying the entity ID a
	// mutating call targets, or the handle key a read targets. Defaults
	// per classification: "id" for mutating tools, "key" for reads.
	TargetField string

	// BudgetTag routes reads to a named budget in addition to the generic
	// read counters. The only recognized tag is "report".
	BudgetTag string
}

// Call carries the arguments of one tool invocation.
//
// Contract:
// - Ownership: Args and Kwargs are read-only for the tool; the runtime
//   owns them and may log previews of every value.
// - Nil/zero: nil Kwargs is treated as empty.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// String extracts a string keyword argument.
func (c Call) String(key string) (string, bool) {
	v, ok := c.Kwargs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int extracts an integer keyword argument, accepting the numeric types
// produced by JSON decoding and the sandbox value bridge.
func (c Call) Int(key string) (int, bool) {
	v, ok := c.Kwargs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// Bool extracts a boolean keyword argument.
func (c Call) Bool(key string) (bool, bool) {
	v, ok := c.Kwargs[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Tool is a named callable exposed to agent code.
//
// Contract:
// - Concurrency: a Tool instance is bound to one run and is invoked from a
//   single goroutine; implementations must not share mutable state across
//   runs.
// - Context: Invoke must honor cancellation and return ctx.Err() when
//   canceled. Tools that can block must enforce their own timeouts.
// - Errors: a returned error is logged by the governor and re-raised into
//   the sandbox's runtime-error path; it never terminates the run.
type Tool interface {
	// Definition returns the tool's static metadata.
	Definition() Definition

	// Invoke executes the tool with the given call arguments.
	Invoke(ctx context.Context, call Call) (any, error)
}

// InvokeFunc is the function signature adapted by Func.
type InvokeFunc func(ctx context.Context, call Call) (any, error)

type funcTool struct {
	def Definition
	fn  InvokeFunc
}

// Func adapts a plain function to the Tool interface.
func Func(def Definition, fn InvokeFunc) Tool {
	if def.Classification == "" {
		def.Classification = ClassPlain
	}
	return &funcTool{def: def, fn: fn}
}

func (t *funcTool) Definition() Definition { return t.def }

func (t *funcTool) Invoke(ctx context.Context, call Call) (any, error) {
	return t.fn(ctx, call)
}

// Target returns the definition's target field, falling back to the
// classification default.
func (d Definition) Target() string {
	if d.TargetField != "" {
		return d.TargetField
	}
	switch d.Classification {
	case ClassMutating:
		return "id"
	case ClassRead:
		return "key"
	}
	return ""
}
