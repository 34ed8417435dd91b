// Package logging builds sill's file-backed structured logger.
//
// The TUI owns the terminal, so records go to <log_dir>/sill.log as JSON
// lines. lumberjack rotates the file by size and keeps a few compressed
// generations next to it.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	MaxSizeMB  = 5
	MaxBackups = 3
	MaxAgeDays = 28
)

// ParseLevel maps a config string to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to path at the given level. The caller
// must Close the returned closer on shutdown.
func New(path, level string) (*slog.Logger, io.Closer, error) {
	sink, err := openSink(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(handler).With("app", "sill"), sink, nil
}

// openSink creates the log directory and returns the rotating writer.
// lumberjack opens the file lazily; the directory is created up front so a
// bad log_dir fails at startup rather than on the first record.
func openSink(path string) (*lumberjack.Logger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("open log: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
		Compress:   true,
	}, nil
}
