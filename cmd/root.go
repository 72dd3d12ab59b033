package cmd

import (
	"fmt"
	"os"

	"booking-insights/core/config"
	"booking-insights/core/logger"

	"github.com/spf13/cobra"
)

var (
	configDir string
	logLevel  string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "booking-insights",
	Short:         "Booking analytics API over a Cal.com account",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var paths []string
		if configDir != "" {
			paths = append(paths, configDir)
		}
		loaded, err := config.Load(paths...)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		log = logger.New(level, cfg.Log.Pretty, os.Stderr)
		logger.SetDefault(log)
		return nil
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Error("CLI:Execute:Error", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml (default . and /etc/booking-insights)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
}
