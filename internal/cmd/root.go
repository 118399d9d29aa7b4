package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pop/internal/app"
	"pop/internal/config"
	"pop/internal/logging"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dbPath     string
	logLevel   string
}

// NewRootCommand creates and returns the root cobra command for pop
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "pop",
		Short: "Blazing-fast file indexing and search tool",
		Long: `pop walks a directory tree once, records every file and directory in a
local SQLite index, and answers name, extension, size, date and path queries
against that index without touching the filesystem again.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultFile, "Path to the YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the index database (overrides config and "+config.EnvDBPath+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(newIndexCommand(opts))
	cmd.AddCommand(newClearCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

// loadConfig resolves configuration from file, environment and flags.
func (o *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(o.dbPath) != "" {
		cfg.DBPath = o.dbPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp loads configuration, installs the logger and opens the index. The
// returned function releases both.
func (o *globalOptions) openApp(cmd *cobra.Command) (*app.App, config.Config, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	closeLog, err := logging.Initialize(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		JSON:    cfg.LogJSON,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("initialize logging: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		_ = closeLog()
		return nil, config.Config{}, nil, err
	}

	cleanup := func() {
		_ = a.Close()
		_ = closeLog()
	}
	return a, cfg, cleanup, nil
}
