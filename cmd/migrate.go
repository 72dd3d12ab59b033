package cmd

import (
	"fmt"

	"booking-insights/core/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := database.Open(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(cmd.Context(), log)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := database.Open(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()
		version, err := db.MigrationVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
