package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithLevel(LevelWarn))

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug/info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "shown too") {
		t.Error("warn/error should pass the filter")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithFormat(FormatJSON), WithName("handshake"))

	l.Info("established", Fields{"channel_id": 7})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "established" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["logger"] != "handshake" {
		t.Errorf("logger = %v", entry["logger"])
	}
	if entry["channel_id"] != float64(7) {
		t.Errorf("channel_id = %v", entry["channel_id"])
	}
}

func TestLoggerWithFieldsAndNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithName("aegis"))

	child := l.Named("stream").With(Fields{"dir": "send"})
	child.Info("sealed")

	out := buf.String()
	if !strings.Contains(out, "[aegis.stream]") {
		t.Errorf("output missing dotted name: %q", out)
	}
	if !strings.Contains(out, "dir=send") {
		t.Errorf("output missing inherited field: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelSilent},
		{"garbage", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
