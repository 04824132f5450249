package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-fraud-must-flow/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has the transaction table and
indexes the application needs.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting database migration",
		"database", cfg.Database.Path,
		"status_only", status)

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		slog.Info("📊 Database Migration Status",
			"database", cfg.Database.Path,
			"current_version", current,
			"latest_version", storage.ExpectedSchemaVersion,
			"up_to_date", current >= storage.ExpectedSchemaVersion)
		return nil
	}

	if err := store.MigrateWithRetry(ctx, migrateAttempts); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!")

	return nil
}
