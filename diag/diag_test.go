package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_FansOut(t *testing.T) {
	var text, extra bytes.Buffer
	log := NewLogger(&text, slog.LevelInfo, slog.NewJSONHandler(&extra, nil))

	log.Info("run started", "run_id", "r1")

	if !strings.Contains(text.String(), "run started") || !strings.Contains(text.String(), "run_id=r1") {
		t.Errorf("text handler missed the record: %q", text.String())
	}
	if !strings.Contains(extra.String(), `"run_id":"r1"`) {
		t.Errorf("extra handler missed the record: %q", extra.String())
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelWarn)

	log.Info("quiet")
	log.Warn("loud")

	if strings.Contains(buf.String(), "quiet") {
		t.Error("info record should be filtered")
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Error("warn record should pass")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("dropped") // must not panic
	if log.Enabled(nil, slog.LevelError) {
		t.Error("discard logger should report disabled")
	}
}
