package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Record is one decoded log line.
type Record struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   []Attr
	// Raw is set when the line was not a JSON record.
	Raw string
}

// Attr is a key/value pair attached to a record.
type Attr struct {
	Key   string
	Value string
}

// Parse decodes a slog JSON line. Lines that are not JSON objects come back
// with only Raw set.
func Parse(line string) Record {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Record{Raw: line}
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Record{Raw: line}
	}

	rec := Record{}
	if ts, ok := fields["time"].(string); ok {
		rec.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	rec.Level, _ = fields["level"].(string)
	rec.Message, _ = fields["msg"].(string)
	delete(fields, "time")
	delete(fields, "level")
	delete(fields, "msg")
	delete(fields, "app")

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec.Attrs = append(rec.Attrs, Attr{Key: k, Value: formatValue(fields[k])})
	}
	return rec
}

// ParseLines decodes every line.
func ParseLines(lines []string) []Record {
	out := make([]Record, len(lines))
	for i, line := range lines {
		out[i] = Parse(line)
	}
	return out
}

// Matches reports whether the record mentions term, ignoring case.
func (r Record) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if r.Raw != "" {
		return strings.Contains(strings.ToLower(r.Raw), term)
	}
	if strings.Contains(strings.ToLower(r.Message), term) {
		return true
	}
	for _, a := range r.Attrs {
		if strings.Contains(strings.ToLower(a.Key+"="+a.Value), term) {
			return true
		}
	}
	return false
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case float64, bool:
		return fmt.Sprint(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
