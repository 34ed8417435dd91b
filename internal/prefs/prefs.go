// Package prefs handles sill user preferences persistence.
// Preferences are stored in ~/.config/sill/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for sill.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastQuery is the address query of the last feed state, restored on
	// the next start.
	LastQuery string `toml:"last_query"`
}

const (
	defaultPrefsPath = "~/.config/sill/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	prefs := Prefs{Theme: defaultTheme}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.LastQuery = strings.TrimSpace(prefs.LastQuery)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// SaveDelay is how long the Store waits after a change before writing the
// file, so bursts of changes from the UI cost one write.
const SaveDelay = 500 * time.Millisecond

// Store keeps preferences in memory and writes them back shortly after they
// change. Write failures are logged and otherwise ignored. Call Flush on
// shutdown to write any pending change.
type Store struct {
	mu     sync.Mutex
	path   string
	prefs  Prefs
	logger *slog.Logger
	delay  time.Duration
	timer  *time.Timer
	dirty  bool
}

// NewStore returns a Store persisting p to path.
func NewStore(path string, p Prefs, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{path: path, prefs: p, logger: logger, delay: SaveDelay}
}

// Prefs returns the current preferences.
func (s *Store) Prefs() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetTheme records the selected theme.
func (s *Store) SetTheme(name string) {
	s.update(func(p *Prefs) bool {
		if p.Theme == name {
			return false
		}
		p.Theme = name
		return true
	})
}

// WriteQuery records the latest address query.
func (s *Store) WriteQuery(raw string) {
	s.update(func(p *Prefs) bool {
		if p.LastQuery == raw {
			return false
		}
		p.LastQuery = raw
		return true
	})
}

// Flush writes a pending change now.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return s.saveLocked()
}

func (s *Store) update(fn func(*Prefs) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn(&s.prefs) {
		return
	}
	s.dirty = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.flushPending)
	}
}

func (s *Store) flushPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = nil
	if err := s.saveLocked(); err != nil {
		s.logger.Warn("save prefs failed", "path", s.path, "error", err)
	}
}

func (s *Store) saveLocked() error {
	if !s.dirty {
		return nil
	}
	if err := Save(s.path, s.prefs); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
