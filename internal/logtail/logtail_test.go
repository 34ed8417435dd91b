package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", lines, err)
	}
}

func TestParse(t *testing.T) {
	line := `{"time":"2026-03-01T10:11:12.5Z","level":"WARN","msg":"listing fetch failed","app":"sill","query":"type=fixed","status":500,"ok":false}`
	rec := Parse(line)

	want := time.Date(2026, 3, 1, 10, 11, 12, 500_000_000, time.UTC)
	if !rec.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", rec.Time, want)
	}
	if rec.Level != "WARN" || rec.Message != "listing fetch failed" || rec.Raw != "" {
		t.Fatalf("record = %+v", rec)
	}
	wantAttrs := []Attr{{"ok", "false"}, {"query", "type=fixed"}, {"status", "500"}}
	if !reflect.DeepEqual(rec.Attrs, wantAttrs) {
		t.Fatalf("Attrs = %v, want %v", rec.Attrs, wantAttrs)
	}
}

func TestParse_NonJSONKeepsRaw(t *testing.T) {
	for _, line := range []string{"plain text", "{broken", ""} {
		rec := Parse(line)
		if rec.Raw != line || rec.Message != "" {
			t.Fatalf("Parse(%q) = %+v, want raw only", line, rec)
		}
	}
}

func TestRecordMatches(t *testing.T) {
	recs := ParseLines([]string{
		`{"level":"INFO","msg":"upload finished","id":"abc123"}`,
		"panic: something",
	})
	if !recs[0].Matches("ABC") || !recs[0].Matches("upload") || recs[0].Matches("panic") {
		t.Fatalf("Matches mismatch on JSON record")
	}
	if !recs[1].Matches("panic") || !recs[1].Matches("") {
		t.Fatalf("Matches mismatch on raw record")
	}
}
