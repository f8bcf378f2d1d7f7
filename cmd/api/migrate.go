package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/crucial707/authsvc/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			v, err := db.Migrate(cfg.MigrateURL())
			if err != nil {
				return err
			}
			slog.Info("migrations applied", "version", v)
			return nil
		},
	}
}
