package main

import (
	"github.com/spf13/cobra"

	"github.com/example/maison/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := database.Connect(cfg.DatabaseURL, database.Options{Verbose: verbose, Migrate: true}, logger)
		return err
	},
}
