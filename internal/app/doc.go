// Package app provides the orchestration layer for sill.
//
// # Overview
//
// This package wires configuration, logging, metrics, the API client, the
// feed and the UI together. It is the composition root: every long-lived
// dependency is created here and handed to the packages that use it.
//
// # Startup
//
//  1. Load ~/.config/sill/config.toml and apply command-line overrides
//  2. Open the rotating JSON log under log_dir
//  3. Load prefs (theme and the last address query)
//  4. Start the Prometheus endpoint when metrics_addr is set
//  5. Build the windows.Client with the metrics observer
//  6. Build the feed from --query, or the saved query when no flag is given
//  7. Poll /health once, then keep polling in the background
//  8. Start the TUI and block until the user exits or the context cancels
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> LoadConfig()        config file + overrides
//	       ├─────> logging.New()       rotating JSON log
//	       ├─────> prefs.NewStore()    theme, address query
//	       ├─────> metrics.New()       Serve() when configured
//	       ├─────> NewClient()         HTTP client for the Windows API
//	       ├─────> feed.New()          listing state, writes the address
//	       ├─────> StartPoller()       health into state.Store
//	       └─────> ui.Run()            TUI (blocks)
//
// # Health Polling
//
// The poller calls /health on a fixed interval (default 5 seconds). Each
// consecutive failure doubles the delay up to 30 seconds; the first success
// returns to the base interval. Outcomes land in state.Store, which the UI
// reads on its own tick, and in the sill_api_up gauge.
//
// # Error Handling
//
// Run returns an error only for startup failures: an unreadable config, a log
// file that cannot be opened or an invalid API URL. Failed polls and failed
// listings are recorded and shown; sill keeps running while the API is down.
package app
