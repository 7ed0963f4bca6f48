package trajectory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// syncer is satisfied by *os.File and any writer that can flush to durable
// storage.
type syncer interface {
	Sync() error
}

// Logger appends events for one run. Appends are serialized by an internal
// mutex, which gives the total-order guarantee within a run.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: append failures are returned; the caller decides whether a
//   broken trajectory aborts the run (store-level corruption is the one
//   failure class allowed to do so).
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

// NewLogger creates a Logger over w. If w has a Sync method it is called
// after every append.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// OpenFile creates a file-backed Logger appending to path.
func OpenFile(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trajectory: %w", err)
	}
	l := NewLogger(f)
	l.closer = f
	return l, nil
}

// Close closes a file-backed logger. It is a no-op for plain writers.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// Append writes one event as a JSON line.
func (l *Logger) Append(typ EventType, data map[string]any) error {
	ev := Event{
		Timestamp: l.timestamp(),
		Type:      typ,
		Data:      data,
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode trajectory event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(line); err != nil {
		return fmt.Errorf("append trajectory event: %w", err)
	}
	if s, ok := l.w.(syncer); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("sync trajectory: %w", err)
		}
	}
	return nil
}

func (l *Logger) timestamp() time.Time {
	l.mu.Lock()
	now := l.now
	l.mu.Unlock()
	return now()
}

// SetClock overrides the event clock. Test hook.
func (l *Logger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// RunStart records the run_start milestone.
func (l *Logger) RunStart(runID string, data map[string]any) error {
	merged := map[string]any{"run_id": runID}
	for k, v := range data {
		merged[k] = v
	}
	return l.Append(EventRunStart, merged)
}

// ToolCall records a tool invocation about to happen. args and kwargs are
// pre-truncated previews.
func (l *Logger) ToolCall(runID, toolName string, args []string, kwargs map[string]string) error {
	if args == nil {
		args = []string{}
	}
	if kwargs == nil {
		kwargs = map[string]string{}
	}
	return l.Append(EventToolCall, map[string]any{
		"run_id": runID,
		"tool":   toolName,
		"args":   args,
		"kwargs": kwargs,
	})
}

// ToolResult records the outcome of a tool invocation. errMsg is empty for
// success; preview is a bounded preview of the serialized result.
func (l *Logger) ToolResult(runID, toolName, errMsg string, resultSize int, resultPreview string) error {
	data := map[string]any{
		"run_id":         runID,
		"tool":           toolName,
		"result_size":    resultSize,
		"result_preview": resultPreview,
	}
	if errMsg != "" {
		data["error"] = errMsg
	} else {
		data["error"] = nil
	}
	return l.Append(EventToolResult, data)
}

// Iteration records the start of turn n.
func (l *Logger) Iteration(runID string, n int) error {
	return l.Append(EventIteration, map[string]any{
		"run_id":    runID,
		"iteration": n,
	})
}

// RunComplete records the run_complete milestone.
func (l *Logger) RunComplete(runID string, data map[string]any) error {
	merged := map[string]any{"run_id": runID}
	for k, v := range data {
		merged[k] = v
	}
	return l.Append(EventRunComplete, merged)
}
