// Package tool defines the tool contract consumed by the sandbox runtime.
//
// A tool is a named callable exposed to agent-submitted code. Each tool
// carries a [Definition] whose [Classification] tells the governance layer
// which counters and gates apply to it:
//
//   - [ClassRead]: reads a stored handle; subject to read budgets.
//   - [ClassProgressCheck]: inspects state without mutating it; subject to
//     the no-progress validation gate.
//   - [ClassMutating]: mutates graph state; subject to the mutation scope
//     guard and advances the graph revision on success.
//   - [ClassPlain]: no counters beyond call/result logging.
//
// Tools are resolved once per run: the caller registers implementations in
// a [Registry] at session construction time, and the registry is not
// consulted dynamically per call.
package tool
