// Package config loads sill's TOML configuration.
//
// # Configuration Discovery
//
// Load resolves settings in this order, later steps winning:
//
//  1. Built-in defaults
//  2. The config file (an explicit path, or ~/.config/sill/config.toml)
//  3. SILL_API_URL and SILL_IMAGE_URL from the environment
//
// Command-line flags are applied on top by the caller. A missing config file
// is not an error.
//
// # Default Values
//
//   - API URL: http://127.0.0.1:8000
//   - Page size: 12 (clamped to 1..100, the range the API accepts)
//   - Log directory: ~/.local/share/sill, log file <log_dir>/sill.log
//   - Log level: info
//   - Image URL and metrics address: unset
//
// # TOML Format
//
//	api_url = "http://windows.lan:8000"
//	image_url = "https://images.example.com"
//	page_size = 12
//	log_dir = "~/.local/share/sill"
//	log_level = "debug"
//	metrics_addr = "127.0.0.1:9464"
//
// Every field is optional. Tilde expansion is performed on log_dir.
package config
