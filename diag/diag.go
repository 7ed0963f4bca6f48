// Package diag builds the diagnostic loggers used around the runtime.
// Diagnostics are separate from the trajectory: the trajectory is the
// run's audit record, diagnostics are for operators.
package diag

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger returns a logger writing text records to w, fanned out to any
// extra handlers (e.g. a JSON file handler or a test recorder).
func NewLogger(w io.Writer, level slog.Leveler, extra ...slog.Handler) *slog.Logger {
	handlers := make([]slog.Handler, 0, len(extra)+1)
	handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	handlers = append(handlers, extra...)
	return slog.New(slogmulti.Fanout(handlers...))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
