// Package session is the unified facade for one governed agent run.
//
// A Session wires the pieces of the runtime together: a handle store, a
// trajectory logger, a governor built from the run's thresholds and
// mutation scope, and a sandbox whose namespace persists across turns.
// The external caller (the language-model loop, which is not part of this
// module) feeds each code submission to Execute and decides when to stop;
// turn-count and wall-clock budgets are the caller's responsibility.
//
// Every session automatically exposes the handle-store surface to agent
// code as three governed tools:
//
//	stash(text, kind)              store text, get a handle
//	handle_stats(key)              bounded metadata for a handle
//	read_window(key, start, size)  bounded window of a handle's text
//
// Run lifecycle: New emits run_start; each Execute emits an iteration
// event; a terminal outcome (SUBMIT or FINAL_VAR) emits run_complete and
// makes further Execute calls fail with ErrRunEnded; Close shuts the
// sandbox down and completes the trajectory if the run was still open.
package session
