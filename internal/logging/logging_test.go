package logging

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Info).(*logfmtLogger)
	logger.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	logger.With(F("component", "stream")).Info("stream connected", F("attempt", 2), F("url", "http://x/api/stream"), Err(errors.New("eof now")))

	got := strings.TrimSpace(buf.String())
	want := `ts=2026-01-01T00:00:00Z level=info msg="stream connected" component=stream attempt=2 url=http://x/api/stream err="eof now"`
	if got != want {
		t.Fatalf("unexpected line:\n got=%s\nwant=%s", got, want)
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Warn)
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	if logger.Enabled(Info) || !logger.Enabled(Error) {
		t.Fatalf("unexpected Enabled results")
	}
}

func TestNopDiscardsEverything(t *testing.T) {
	logger := Nop()
	if logger.Enabled(Error) {
		t.Fatalf("nop logger should not be enabled")
	}
	logger.Error("ignored")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"":        Info,
		"bogus":   Info,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ui.log")
	logger, closer, err := OpenFile(path, Debug)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	logger.Debug("first")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := OpenFile("  ", Debug); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
