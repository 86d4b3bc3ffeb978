package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
)

// decode parses a single JSON log line.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestNew(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "STDERR", ""} {
		if New(config.LoggingConfig{Output: output}, "1.0.0") == nil {
			t.Fatalf("New(output=%q) = nil", output)
		}
	}
}

func TestDestination(t *testing.T) {
	if destination("stderr") != os.Stderr {
		t.Error("stderr output should write to os.Stderr")
	}
	if destination("stdout") != os.Stdout {
		t.Error("stdout output should write to os.Stdout")
	}
	if destination("/var/log/door.log") != os.Stdout {
		t.Error("unknown output should fall back to os.Stdout")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_DefaultFields(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "0.3.1", &buf)
	logger.Info("door opened", "hold_ms", 3000)

	entry := decode(t, &buf)
	if entry["service"] != "graylogic-door" {
		t.Errorf("service = %v, want graylogic-door", entry["service"])
	}
	if entry["version"] != "0.3.1" {
		t.Errorf("version = %v, want 0.3.1", entry["version"])
	}
	if entry["msg"] != "door opened" {
		t.Errorf("msg = %v, want door opened", entry["msg"])
	}
	if entry["hold_ms"] != float64(3000) {
		t.Errorf("hold_ms = %v, want 3000", entry["hold_ms"])
	}
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Format: "TEXT"}, "test", &buf)
	logger.Info("ready")

	if !strings.Contains(buf.String(), "msg=ready") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "test", &buf)
	logger.Info("dropped")
	logger.Warn("kept")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(output, "kept") {
		t.Error("warn entry should be written at warn level")
	}
}

// ============================================================================
// Child loggers
// ============================================================================

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Format: "json"}, "test", &buf)
	child := logger.Component("mqtt")
	if child == logger {
		t.Fatal("Component() returned the parent")
	}

	child.Info("connected")
	entry := decode(t, &buf)
	if entry["component"] != "mqtt" {
		t.Errorf("component = %v, want mqtt", entry["component"])
	}
	if entry["service"] != "graylogic-door" {
		t.Errorf("child lost service field: %v", entry)
	}

	buf.Reset()
	logger.Info("parent")
	if _, ok := decode(t, &buf)["component"]; ok {
		t.Error("parent logger should not carry the child's component")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Format: "json"}, "test", &buf)
	logger.With("door", "door1").Info("cycle")

	if got := decode(t, &buf)["door"]; got != "door1" {
		t.Errorf("door = %v, want door1", got)
	}
}

func TestDefaultAndDiscard(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() = nil")
	}

	logger := Discard()
	if logger == nil {
		t.Fatal("Discard() = nil")
	}
	logger.Error("nothing to see")
	logger.Component("api").Error("still nothing")
}
