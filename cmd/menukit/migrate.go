package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/menukit/internal/app"
)

func newMigrateCmd() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the store schema and exit",
		Long: `Apply database migrations for the configured STORE_DRIVER.
Postgres runs the embedded goose migrations; mongo creates the
collection indexes. The memory driver has nothing to migrate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if driver != "" {
				cfg.StoreDriver = driver
			}
			log := app.NewLogger(cfg)

			if err := app.Migrate(cmd.Context(), cfg, log); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date\n", cfg.StoreDriver)
			return err
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "override STORE_DRIVER")
	return cmd
}
