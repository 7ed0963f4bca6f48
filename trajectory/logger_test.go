package trajectory

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []Event {
	t.Helper()
	var events []Event
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestAppend_WritesOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.SetClock(func() time.Time { return time.Unix(1700000000, 0).UTC() })

	if err := l.Append(EventRunStart, map[string]any{"run_id": "r1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Error("expected line to end in newline")
	}
	if strings.Count(line, "\n") != 1 {
		t.Errorf("expected exactly one line, got %q", line)
	}

	events := decodeLines(t, &buf)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventRunStart {
		t.Errorf("expected event_type run_start, got %q", events[0].Type)
	}
	if events[0].Data["run_id"] != "r1" {
		t.Errorf("expected run_id r1, got %v", events[0].Data["run_id"])
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

func TestLogger_EventOrderPreserved(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	_ = l.RunStart("r1", nil)
	_ = l.Iteration("r1", 1)
	_ = l.ToolCall("r1", "graph_upsert", []string{"A"}, nil)
	_ = l.ToolResult("r1", "graph_upsert", "", 12, `{"id":"A"}`)
	_ = l.RunComplete("r1", map[string]any{"status": "submitted"})

	events := decodeLines(t, &buf)
	want := []EventType{EventRunStart, EventIteration, EventToolCall, EventToolResult, EventRunComplete}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, typ := range want {
		if events[i].Type != typ {
			t.Errorf("event %d: expected %q, got %q", i, typ, events[i].Type)
		}
	}
}

func TestToolResult_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	_ = l.ToolResult("r1", "t", "", 4, "null")
	_ = l.ToolResult("r1", "t", "boom", 0, "")

	events := decodeLines(t, &buf)
	if events[0].Data["error"] != nil {
		t.Errorf("success result: expected error=null, got %v", events[0].Data["error"])
	}
	if events[1].Data["error"] != "boom" {
		t.Errorf("failed result: expected error=boom, got %v", events[1].Data["error"])
	}
}

func TestPreview_TruncatesWithMarker(t *testing.T) {
	long := strings.Repeat("a", DefaultPreviewLimit+50)
	p := Preview(long, DefaultPreviewLimit)
	if len(p) != DefaultPreviewLimit+len("...") {
		t.Errorf("unexpected preview length %d", len(p))
	}
	if !strings.HasSuffix(p, "...") {
		t.Errorf("expected truncation marker, got suffix %q", p[len(p)-5:])
	}

	short := "short"
	if got := Preview(short, DefaultPreviewLimit); got != short {
		t.Errorf("short input should pass through, got %q", got)
	}
}

func TestAppend_ConcurrentWritersProduceWholeLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if err := l.Iteration("r1", j); err != nil {
					t.Errorf("append: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	events := decodeLines(t, &buf)
	if len(events) != 100 {
		t.Fatalf("expected 100 whole events, got %d", len(events))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAppend_PropagatesWriteError(t *testing.T) {
	l := NewLogger(failingWriter{})
	if err := l.Append(EventIteration, nil); err == nil {
		t.Fatal("expected write error")
	}
}

type syncCounter struct {
	bytes.Buffer
	syncs int
}

func (s *syncCounter) Sync() error {
	s.syncs++
	return nil
}

func TestAppend_SyncsAfterEachEvent(t *testing.T) {
	var w syncCounter
	l := NewLogger(&w)

	_ = l.Append(EventIteration, nil)
	_ = l.Append(EventIteration, nil)

	if w.syncs != 2 {
		t.Errorf("expected 2 syncs, got %d", w.syncs)
	}
}
