package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/five82/sill/internal/config"
	"github.com/five82/sill/internal/feed"
	"github.com/five82/sill/internal/logging"
	"github.com/five82/sill/internal/metrics"
	"github.com/five82/sill/internal/prefs"
	"github.com/five82/sill/internal/query"
	"github.com/five82/sill/internal/state"
	"github.com/five82/sill/internal/ui"
	"github.com/five82/sill/internal/windows"
)

// Options configure the sill application. Zero values fall back to the
// config file.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/sill/prefs.toml
	PollEvery   time.Duration
	APIURL      string
	MetricsAddr string
	LogLevel    string

	// Query is the address query to open. When QuerySet is false the last
	// query saved in prefs is restored instead.
	Query    string
	QuerySet bool

	Version string
}

// Run boots the sill TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("load prefs failed; using defaults", "path", prefsPath, "error", err)
	}
	prefStore := prefs.NewStore(prefsPath, userPrefs, logger)
	defer func() {
		if err := prefStore.Flush(); err != nil {
			logger.Warn("save prefs failed", "path", prefsPath, "error", err)
		}
	}()

	rec := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := rec.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	client, err := NewClient(cfg, rec, opts.Version)
	if err != nil {
		return err
	}

	raw := userPrefs.LastQuery
	if opts.QuerySet {
		raw = opts.Query
	}
	initial := query.Parse(raw)

	f := feed.New(client, initial, cfg.PageSize,
		feed.WithAddressWriter(prefStore),
		feed.WithStaleHook(rec.StaleResponse),
		feed.WithLogger(logger),
	)

	interval := opts.PollEvery
	if interval <= 0 {
		interval = defaultPollInterval
	}

	store := &state.Store{}
	// Populate health before the first frame.
	refresh(ctx, store, client, rec, logger)
	StartPoller(ctx, store, client, interval, rec, logger)

	logger.Info("sill started",
		"api_url", cfg.APIURL,
		"query", initial.Encode(),
		"page_size", cfg.PageSize,
		"version", opts.Version,
	)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Feed:      f,
		Health:    store,
		Prefs:     prefStore,
		Metrics:   rec,
		Logger:    logger,
		APIURL:    cfg.APIURL,
		ImageURL:  cfg.ImageURL,
		LogPath:   cfg.LogPath(),
		ThemeName: userPrefs.Theme,
	})
	if err != nil {
		logger.Error("ui exited", "error", err)
		return err
	}
	logger.Info("sill stopped")
	return nil
}

// LoadConfig reads the config file and applies the non-empty overrides in
// opts.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if cfg.APIURL == "" {
		return config.Config{}, errors.New("load config: api_url is empty")
	}
	return cfg, nil
}

// NewClient builds the API client for cfg. rec may be nil.
func NewClient(cfg config.Config, rec *metrics.Recorder, version string) (*windows.Client, error) {
	var opts []windows.Option
	if rec != nil {
		opts = append(opts, windows.WithObserver(rec))
	}
	if version != "" {
		opts = append(opts, windows.WithUserAgent("sill/"+version))
	}
	client, err := windows.NewClient(cfg.APIURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}
	return client, nil
}
