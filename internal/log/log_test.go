package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInitVerbose(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Stderr: &buf})

	slog.Debug("debug message")
	slog.Warn("warn message")

	out := buf.String()
	if !strings.Contains(out, "debug message") {
		t.Errorf("verbose logger dropped debug output: %q", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("verbose logger dropped warn output: %q", out)
	}
}

func TestInitQuiet(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: false, Stderr: &buf})

	slog.Debug("debug message")
	slog.Info("info message")
	slog.Warn("warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("quiet logger emitted debug/info output: %q", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("quiet logger dropped warn output: %q", out)
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{JSONFormat: true, Stderr: &buf})

	slog.Error("boom", "pid", 42)

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("JSON handler produced non-JSON output: %q", out)
	}
	if !strings.Contains(out, `"pid":42`) {
		t.Errorf("JSON output missing attribute: %q", out)
	}
}
