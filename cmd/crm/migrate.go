package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/crm-sheets/internal/cli"
	"github.com/Veraticus/crm-sheets/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Other commands migrate on startup as well; this one is useful to prepare a
database ahead of time or to check its schema version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	app, err := loadApp()
	if err != nil {
		return err
	}

	slog.Info("Starting database migration", "database", app.DatabasePath, "status_only", status)

	store, err := storage.NewSQLiteStorage(app.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.RenderTable([]string{"Database", "Current", "Latest"}, [][]string{{
			app.DatabasePath, fmt.Sprint(current), fmt.Sprint(storage.ExpectedSchemaVersion),
		}}))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed"))
	return nil
}
