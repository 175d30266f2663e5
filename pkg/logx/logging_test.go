package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggerWritesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "debug").With(String("comp", "test"))
	log.Info("hello", Int64("event_id", 7), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if m["message"] != "hello" {
		t.Fatalf("message = %v, want hello", m["message"])
	}
	if m["comp"] != "test" {
		t.Fatalf("comp = %v, want test", m["comp"])
	}
	if m["event_id"] != float64(7) {
		t.Fatalf("event_id = %v, want 7", m["event_id"])
	}
	if m["err"] != "boom" {
		t.Fatalf("err = %v, want boom", m["err"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn")
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	if log.Enabled(LevelDebug) {
		t.Fatalf("debug enabled at warn level")
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Fatalf("warn not written")
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var l Logger
	if !l.IsZero() {
		t.Fatalf("zero logger IsZero = false")
	}
	l.Error("nothing happens")
	Nop().With(String("k", "v")).Info("still nothing")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" WARNING ", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseLevel(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseLevel(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestServiceApplyChangesLevelOfDerivedLoggers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svc, root := NewService(Config{Level: "warn", Console: true, Out: &buf})
	log := root.With(String("comp", "x"))

	log.Info("before")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}

	svc.Apply(Config{Level: "debug", Console: true, Out: &buf})
	log.Info("after")
	if !bytes.Contains(buf.Bytes(), []byte("after")) {
		t.Fatalf("output = %q, want it to contain %q", buf.String(), "after")
	}
	if got := svc.Config().Level; got != "debug" {
		t.Fatalf("Config().Level = %q, want debug", got)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestServiceFileSinkWritesJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	var console bytes.Buffer
	svc, log := NewService(Config{Level: "info", Out: &console, File: FileConfig{Enabled: true, Path: path}})
	log.Info("to file", Int("n", 3))
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if console.Len() != 0 {
		t.Fatalf("console sink written with Console=false: %q", console.String())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &m); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	if m["message"] != "to file" || m["n"] != float64(3) {
		t.Fatalf("line = %v, want message=to file n=3", m)
	}
}
