package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/crm-sheets/internal/config"
	"github.com/Veraticus/crm-sheets/internal/exporter"
	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/Veraticus/crm-sheets/internal/sheets"
	"github.com/Veraticus/crm-sheets/internal/storage"
	"github.com/spf13/viper"
)

func loadApp() (config.App, error) {
	app, err := config.Load(viper.GetViper())
	if err != nil {
		return config.App{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return app, nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, app config.App) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(app.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func initSettings(app config.App) *settings.Store {
	return settings.NewStore(app.SettingsPath, slog.Default())
}

func sheetsConfig(app config.App) sheets.Config {
	cfg := sheets.DefaultConfig()
	if app.TimeZone != "" {
		cfg.TimeZone = app.TimeZone
	}
	return cfg
}

// reporting bundles what the export-related commands need.
type reporting struct {
	exporter *exporter.Service
	catalog  *sheets.Catalog
	settings *settings.Store
}

func initReporting(app config.App, records exporter.RecordSource) (*reporting, error) {
	logger := slog.Default()
	st := initSettings(app)
	cfg := sheetsConfig(app)

	resolver := sheets.NewResolver(sheets.NewGoogleClientFactory(logger), cfg, logger)
	writer, err := sheets.NewWriter(cfg, st, resolver, logger)
	if err != nil {
		return nil, err
	}
	catalog := sheets.NewCatalog(st, resolver, logger)

	svc := exporter.NewWithConfig(records, writer, catalog, logger, exporter.Config{BatchLimit: app.BatchLimit})
	return &reporting{exporter: svc, catalog: catalog, settings: st}, nil
}
