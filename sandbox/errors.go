package sandbox

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrSyntax indicates the submitted code is not well-formed. The
	// submission never started executing; the run continues next turn.
	ErrSyntax = errors.New("syntax error")

	// ErrTerminalProtocol indicates SUBMIT was called with a disallowed
	// argument shape. Fatal to that submission only.
	ErrTerminalProtocol = errors.New("terminal protocol violation")

	// ErrShutDown indicates the sandbox was shut down.
	ErrShutDown = errors.New("sandbox is shut down")
)

// SyntaxError reports a static failure in a submission: a parse error or
// an unresolved name, with source position when available.
type SyntaxError struct {
	Msg    string
	Line   int
	Column int
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Msg, e.Line, e.Column)
	}
	return e.Msg
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Is reports whether this error matches ErrSyntax, enabling
// sentinel-style checks.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// ProtocolError reports a violation of the SUBMIT keyword-only contract.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return e.Msg }

// Is reports whether this error matches ErrTerminalProtocol.
func (e *ProtocolError) Is(target error) bool { return target == ErrTerminalProtocol }

// submitSignal aborts execution when SUBMIT is called; it carries the
// submitted fields out of the interpreter. Never visible to callers.
type submitSignal struct {
	fields map[string]any
}

func (s *submitSignal) Error() string { return "final result submitted" }
