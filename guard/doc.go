// Package guard implements the resource-governance layer wrapped around
// every tool the agent can call.
//
// A [Governor] wraps tools for one run. Each wrapped invocation is logged
// to the run's trajectory, counted in the run's [State], and gated by the
// configured [Thresholds]. A call that would exceed a budget is not
// executed; instead the wrapped tool returns a [Rejection] value carrying
// the rejection code, the current counters, and a suggestion. Rejections
// are ordinary return values, never errors, so the agent can recover on
// its next turn.
//
// Gates are applied by classification only (see the tool package); the
// governor never inspects what a wrapped tool actually does. Counters are
// monotonic within a run: the only reset is validations_without_delta
// returning to zero when the graph revision advances, which is itself
// monotonic. Every rejection is therefore explainable from the current
// counter values and the fixed thresholds.
package guard
