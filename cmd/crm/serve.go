package main

import (
	"log/slog"

	"github.com/Veraticus/crm-sheets/internal/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the records, export and settings endpoints over HTTP.

  /api/clients, /api/deals, /api/tasks   record CRUD, list and search
  /api/export/{section}                  create a report
  /api/export/files?section=             list reports
  /api/settings/google                   read and update settings
  /healthz                               liveness`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := loadApp()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, app)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rep, err := initReporting(app, store)
	if err != nil {
		return err
	}

	server := api.NewServer(slog.Default(), api.Config{
		Addr: app.ServerAddr,
		Dependencies: api.Dependencies{
			Records:  store,
			Exporter: rep.exporter,
			Settings: rep.settings,
		},
	})
	return server.Start(ctx)
}
