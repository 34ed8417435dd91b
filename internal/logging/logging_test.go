package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_WritesJSONRecordsAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sill.log")
	logger, closer, err := New(path, "warn")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("listing fetch failed", "query", "type=fixed")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record not JSON: %v", err)
	}
	if rec["msg"] != "listing fetch failed" || rec["level"] != "WARN" || rec["query"] != "type=fixed" || rec["app"] != "sill" {
		t.Fatalf("record = %v", rec)
	}
}

func TestOpenSink_RotationSettings(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	path := filepath.Join(dir, "sill.log")
	sink, err := openSink(path)
	if err != nil {
		t.Fatalf("openSink returned error: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })

	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		t.Fatalf("log dir not created: %v", err)
	}
	if sink.Filename != path || sink.MaxSize != MaxSizeMB || sink.MaxBackups != MaxBackups || !sink.Compress {
		t.Fatalf("sink = %+v", sink)
	}
}

func TestOpenSink_RotateKeepsPreviousGenerations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sill.log")
	sink, err := openSink(path)
	if err != nil {
		t.Fatalf("openSink returned error: %v", err)
	}
	sink.Compress = false
	t.Cleanup(func() { _ = sink.Close() })

	for _, line := range []string{"first\n", "second\n"} {
		if _, err := sink.Write([]byte(line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := sink.Rotate(); err != nil {
			t.Fatalf("Rotate: %v", err)
		}
		// Backup names carry a millisecond timestamp.
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := sink.Write([]byte("third\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	backups, err := filepath.Glob(filepath.Join(dir, "sill-*.log"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("backups = %v, want 2 generations", backups)
	}
	cur, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(cur) != "third\n" {
		t.Fatalf("current = %q", cur)
	}
}

func TestOpenSink_RejectsEmptyPath(t *testing.T) {
	if _, _, err := New("  ", "info"); err == nil {
		t.Fatalf("New accepted an empty path")
	}
}
