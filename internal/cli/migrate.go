package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"account-ledger/internal/config"
	"account-ledger/internal/server"
	"account-ledger/migrations"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.StoragePostgres {
				return fmt.Errorf("migrate requires storage_driver %q, got %q", config.StoragePostgres, cfg.StorageDriver)
			}

			db, err := server.OpenDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrations.Apply(cmd.Context(), db, logger)
			if err != nil {
				return err
			}

			logger.Info("Migrations complete", "applied", applied)
			return nil
		},
	}
}
