// Package sandbox implements the persistent code-execution environment
// that runs one agent code submission per turn.
//
// Submissions are Starlark programs executed against a namespace that
// survives across turns: assignments made in one Execute call are visible
// to the next. The current tool set is re-bound into the namespace before
// every execution, so the host may swap tool implementations between turns
// without restarting the sandbox.
//
// Two termination primitives are recognized inside submitted code:
//
//   - SUBMIT(**fields) ends the run with the given keyword fields.
//     Positional arguments violate the terminal protocol and fail the
//     submission with a distinct error kind.
//   - FINAL_VAR(name) resolves the final answer from a namespace variable.
//     A missing variable leaves the final-answer slot unset and surfaces
//     an error indicator in the turn output instead of failing.
//
// Error taxonomy: syntax errors are returned as [*SyntaxError] (matching
// [ErrSyntax]) before anything executes; runtime failures are recovered
// into the turn's output as "Error: ..." lines so the run always survives
// to the next turn; SUBMIT protocol violations are returned as
// [*ProtocolError] (matching [ErrTerminalProtocol]).
package sandbox
