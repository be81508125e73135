package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goexperiments/internal/cli"
	"github.com/TimurManjosov/goexperiments/internal/logging"
)

var (
	// Global flags
	storeType string
	dsn       string
	gateHost  string
	mode      string
	server    string
	apiKey    string
	format    string
	quiet     bool
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "experiments",
	Short: "CLI tool for managing experiment flags",
	Long: `Experiments reads and changes experiment flags held in a key-value store.

Flags can be changed one at a time or in bulk with a configure command, a URL of
the form scheme://<gate-host>/configure?name=value&other. Commands work on a
local store, or on a running server when --server is given.

Examples:
  experiments list
  experiments enable new_checkout
  experiments set retry_limit 5
  experiments configure "app://experiments/configure?new_checkout=true&old_banner"
  experiments list --server http://localhost:8080
  experiments watch commands.txt`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&storeType, "store", "", "Store type (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "SQLite file path or PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&gateHost, "gate-host", "", "Host configure commands must carry")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "Configure value handling (typed, boolean)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "Base URL of an experiments server to use instead of a local store")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Admin API key for the server")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

func resolveConfig() (*cli.Config, error) {
	cfg, err := cli.ResolveConfig(cli.Overrides{
		Store:    storeType,
		DSN:      dsn,
		GateHost: gateHost,
		Mode:     mode,
		Server:   server,
		APIKey:   apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger writes diagnostics to stderr so they never mix with command output.
func newLogger() (zerolog.Logger, error) {
	level := "warn"
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(os.Stderr, level, logging.FormatConsole)
}

// openBackend resolves the configuration and connects to the store or server it names.
func openBackend(ctx context.Context) (backend, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Server != "" {
		return newRemoteBackend(cfg), nil
	}
	log, err := newLogger()
	if err != nil {
		return nil, err
	}
	return newLocalBackend(ctx, cfg, log)
}
