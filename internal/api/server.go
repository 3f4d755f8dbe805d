// Package api exposes the CRM records, report exports and Google settings over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/crm-sheets/internal/service"
	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SettingsStore is the settings file as seen by the HTTP layer.
type SettingsStore interface {
	Raw() (map[string]any, error)
	UpdateMap(values map[string]any) (map[string]any, error)
	SaveCredential(target settings.CredentialTarget, content []byte) (string, error)
}

// Dependencies are the collaborators behind the endpoints.
type Dependencies struct {
	Records  service.Storage
	Exporter service.Exporter
	Settings SettingsStore
}

// Config holds server options.
type Config struct {
	Dependencies    Dependencies
	Addr            string
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end.
type Server struct {
	router *chi.Mux
	logger *slog.Logger
	server *http.Server
	config Config
}

// NewServer wires the routes.
func NewServer(logger *slog.Logger, config Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	records := &recordHandler{store: config.Dependencies.Records}
	exports := &exportHandler{exporter: config.Dependencies.Exporter}
	googleSettings := &settingsHandler{store: config.Dependencies.Settings}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(Logger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", records.createClient)
			r.Get("/", records.listClients)
			r.Get("/search", records.searchClients)
			r.Get("/{id}", records.getClient)
			r.Patch("/{id}", records.updateClient)
			r.Delete("/{id}", records.deleteClient)
			r.Post("/{id}/archive", records.archiveClient)
		})
		r.Route("/deals", func(r chi.Router) {
			r.Post("/", records.createDeal)
			r.Get("/", records.listDeals)
			r.Get("/search", records.searchDeals)
			r.Get("/{id}", records.getDeal)
			r.Patch("/{id}", records.updateDeal)
			r.Delete("/{id}", records.deleteDeal)
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", records.createTask)
			r.Get("/", records.listTasks)
			r.Get("/search", records.searchTasks)
			r.Get("/{id}", records.getTask)
			r.Patch("/{id}", records.updateTask)
			r.Delete("/{id}", records.deleteTask)
			r.Post("/{id}/complete", records.completeTask)
		})
		r.Route("/export", func(r chi.Router) {
			r.Get("/files", exports.listFiles)
			r.Post("/{section}", exports.export)
		})
		r.Route("/settings/google", func(r chi.Router) {
			r.Get("/", googleSettings.get)
			r.Post("/", googleSettings.update)
			r.Post("/upload", googleSettings.upload)
		})
	})

	return &Server{
		router: router,
		logger: logger,
		config: config,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "addr", s.server.Addr)
		serverErrors <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("graceful shutdown failed", "error", err)
			return s.server.Close()
		}
	}

	return nil
}
