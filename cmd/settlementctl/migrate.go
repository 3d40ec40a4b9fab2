package main

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/partner_settlement_app/internal/platform/app"
	"github.com/SscSPs/partner_settlement_app/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	var path string
	cmd.PersistentFlags().StringVar(&path, "path", app.MigrationsPath, "Migrations source URL")

	run := func(direction database.MigrateDirection) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("PGSQL_URL is required for migrations")
			}
			logger.Info("Running migrations", slog.String("direction", string(direction)), slog.String("path", path))
			if err := database.RunMigrations(cfg.DatabaseURL, path, direction); err != nil {
				return err
			}
			logger.Info("Migrations finished")
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(database.MigrateUp)},
		&cobra.Command{Use: "down", Short: "Roll back every migration", RunE: run(database.MigrateDown)},
	)
	return cmd
}
