package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(buf, levelVar)), buf
}

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.Info("scan started", String(FieldCategory, "image"), Int(FieldFileCount, 12))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "INFO") {
		t.Fatalf("expected level label in output: %q", line)
	}
	if !strings.Contains(line, "scan started") {
		t.Fatalf("expected message in output: %q", line)
	}
	if !strings.Contains(line, "category=image") || !strings.Contains(line, "file_count=12") {
		t.Fatalf("expected attrs in output: %q", line)
	}
}

func TestConsoleHandlerPullsComponentForward(t *testing.T) {
	logger, buf := newBufferLogger(t)

	NewComponentLogger(logger, "engine").Info("phase complete")

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "engine: phase complete") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as a trailing attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.Warn("skipping file", String(FieldPath, "/tmp/with space.txt"))

	if !strings.Contains(buf.String(), `path="/tmp/with space.txt"`) {
		t.Fatalf("expected quoted path, got %q", buf.String())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should vanish", Error(nil))
}
