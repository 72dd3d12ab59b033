package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"booking-insights/core/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := server.Bootstrap(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()
		return server.Run(ctx, app)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
