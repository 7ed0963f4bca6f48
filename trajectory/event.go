package trajectory

import (
	"time"
	"unicode/utf8"
)

// EventType identifies the kind of trajectory event.
type EventType string

const (
	EventRunStart    EventType = "run_start"
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventIteration   EventType = "iteration"
	EventRunComplete EventType = "run_complete"
)

// DefaultPreviewLimit bounds every string recorded in an event.
const DefaultPreviewLimit = 300

// Event is one record in a run's trajectory.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"event_type"`
	Data      map[string]any `json:"data"`
}

// Preview truncates s to at most max characters, appending a marker when
// anything was cut. max <= 0 uses DefaultPreviewLimit.
func Preview(s string, max int) string {
	if max <= 0 {
		max = DefaultPreviewLimit
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
