package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/maison/internal/database"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/store"
)

var syncProductsCmd = &cobra.Command{
	Use:   "sync-products",
	Short: "Import the external catalog (CATALOG_PROVIDER) into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := services.NewCatalogProvider(cfg)
		if err != nil {
			return err
		}
		if catalog == nil {
			return errors.New("CATALOG_PROVIDER is not set")
		}

		db, err := database.Connect(cfg.DatabaseURL, database.Options{Verbose: verbose, Migrate: true}, logger)
		if err != nil {
			return err
		}

		result, err := services.SyncCatalog(cmd.Context(), catalog, store.New(db), logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: fetched %d, upserted %d, failed %d\n",
			result.Provider, result.Fetched, result.Upserted, result.Failed)
		return nil
	},
}
