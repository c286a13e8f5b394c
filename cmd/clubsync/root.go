package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fortuna/clubsync/internal/config"
	"github.com/fortuna/clubsync/internal/logging"
)

const (
	serviceName    = "clubsync"
	serviceVersion = "1.0.0"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     serviceName,
	Short:   "Regional football results ingestion and club sync",
	Version: serviceVersion,
	Long: `clubsync reads club pages from a regional football results site and keeps
registered clubs in sync: league table position, fixtures and results.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Setup(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
