package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds sill's runtime settings.
type Config struct {
	APIURL      string
	ImageURL    string
	PageSize    int
	LogDir      string
	LogLevel    string
	MetricsAddr string
}

const (
	defaultConfigPath = "~/.config/sill/config.toml"
	defaultLogDir     = "~/.local/share/sill"
	defaultAPIURL     = "http://127.0.0.1:8000"
	defaultPageSize   = 12
	defaultLogLevel   = "info"
	maxPageSize       = 100

	// EnvAPIURL overrides api_url.
	EnvAPIURL = "SILL_API_URL"
	// EnvImageURL overrides image_url.
	EnvImageURL = "SILL_IMAGE_URL"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:   defaultAPIURL,
		PageSize: defaultPageSize,
		LogDir:   mustExpand(defaultLogDir),
		LogLevel: defaultLogLevel,
	}
}

// Load locates and parses the config file, falling back to defaults when it
// is missing. Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL      string `toml:"api_url"`
		ImageURL    string `toml:"image_url"`
		PageSize    int    `toml:"page_size"`
		LogDir      string `toml:"log_dir"`
		LogLevel    string `toml:"log_level"`
		MetricsAddr string `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.ImageURL = strings.TrimSpace(raw.ImageURL)
	if raw.PageSize != 0 {
		cfg.PageSize = ClampPageSize(raw.PageSize)
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	cfg.applyEnv()
	return cfg, nil
}

// LogPath returns the path of sill's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return filepath.Join(mustExpand(defaultLogDir), "sill.log")
	}
	return filepath.Join(c.LogDir, "sill.log")
}

// WithPageSize returns c with the page size clamped to what the API accepts.
func (c Config) WithPageSize(n int) Config {
	c.PageSize = ClampPageSize(n)
	return c
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvImageURL)); v != "" {
		c.ImageURL = v
	}
}

// ClampPageSize limits n to the page sizes the API accepts, 1 through 100.
func ClampPageSize(n int) int {
	switch {
	case n < 1:
		return 1
	case n > maxPageSize:
		return maxPageSize
	}
	return n
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
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
