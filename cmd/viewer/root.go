package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/midas-viewer/internal/config"
	"github.com/zhouzirui/midas-viewer/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "midas-viewer",
		Short: "Live viewer for MIDAS conversations and treasury",
		Long: `Serve a single page that shows the MIDAS conversation log and the
treasury balance, refreshing the balance on a schedule.

Quick Start:
  midas-viewer serve                 # Serve the live page on :8080
  midas-viewer snapshot --out x.html # Write a standalone page once`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides VIEWER_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(opts), newSnapshotCmd(opts))
	return cmd
}

// load reads .env and the configuration, then builds the process logger.
func (o *rootOptions) load() (*config.Config, zerolog.Logger, error) {
	envErr := godotenv.Load()

	if o.configPath != "" {
		// config.Load reads the file named by VIEWER_CONFIG
		if err := os.Setenv("VIEWER_CONFIG", o.configPath); err != nil {
			return nil, zerolog.Nop(), err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Logger = logger
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("no .env loaded, using system environment only")
	}
	return cfg, logger, nil
}
