package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/sill/internal/app"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootFlags are shared by every command.
type rootFlags struct {
	configPath string
	apiURL     string
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sill: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		flags       rootFlags
		queryRaw    string
		poll        time.Duration
		metricsAddr string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "sill",
		Short: "Browse and upload window photographs from the terminal",
		Long: `sill is a terminal client for the Windows API.

Run without a command to open the feed: filter by facet, search the
descriptions, page through the results and upload new photographs.
The commands below talk to the same API without the TUI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath:  flags.configPath,
				APIURL:      flags.apiURL,
				PollEvery:   poll,
				MetricsAddr: metricsAddr,
				LogLevel:    logLevel,
				Query:       queryRaw,
				QuerySet:    cmd.Flags().Changed("query"),
				Version:     version,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/sill/config.toml)")
	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Windows API root, overrides api_url")

	cmd.Flags().StringVarP(&queryRaw, "query", "q", "", `address query to open, e.g. "type=sliding&page=2"`)
	cmd.Flags().DurationVar(&poll, "poll", 0, "health poll interval (default 5s)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(
		listCmd(&flags),
		showCmd(&flags),
		duplicatesCmd(&flags),
		uploadCmd(&flags),
		healthCmd(&flags),
		versionCmd(),
	)
	return cmd
}
