package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf)

	log.Info("export complete", map[string]any{"chats": 3})
	log.Error("write failed", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var first LogEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line is not JSON: %v", err)
	}
	if first.Level != "info" || first.Message != "export complete" {
		t.Fatalf("unexpected event: %+v", first)
	}
	if got, ok := first.Fields["chats"]; !ok || got != float64(3) {
		t.Fatalf("expected chats field, got %v", first.Fields)
	}

	var second LogEvent
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second line is not JSON: %v", err)
	}
	if second.Level != "error" || second.Fields != nil {
		t.Fatalf("unexpected event: %+v", second)
	}
}
