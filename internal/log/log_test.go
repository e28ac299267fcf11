package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, LevelWarn)

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Fatalf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] warn line") {
		t.Fatalf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error line err=boom") {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestKeyValueFormatting(t *testing.T) {
	buf := captureOutput(t, LevelDebug)

	Info("feed refreshed", "id", "bookings", "title", "Sunset cruise", 42, "skipped", "dangling")

	out := buf.String()
	if !strings.Contains(out, "id=bookings") {
		t.Fatalf("missing id pair: %q", out)
	}
	if !strings.Contains(out, `title="Sunset cruise"`) {
		t.Fatalf("expected quoted value: %q", out)
	}
	if strings.Contains(out, "skipped") || strings.Contains(out, "dangling") {
		t.Fatalf("non-string key and dangling value should be dropped: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{in: "debug", want: LevelDebug, ok: true},
		{in: " Warning ", want: LevelWarn, ok: true},
		{in: "ERROR", want: LevelError, ok: true},
		{in: "", want: LevelInfo, ok: false},
		{in: "loud", want: LevelInfo, ok: false},
	}
	for _, tc := range tests {
		got, ok := ParseLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLevel(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
