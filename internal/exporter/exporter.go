// Package exporter feeds stored CRM records into the spreadsheet report writer.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/service"
	"github.com/Veraticus/crm-sheets/internal/sheets"
	"golang.org/x/sync/errgroup"
)

// ReportWriter creates one report document from a row set.
type ReportWriter interface {
	Export(ctx context.Context, rows sheets.Rows, folderID string) (*model.ReportDocument, error)
}

// ReportCatalog lists previously generated reports.
type ReportCatalog interface {
	ListReports(ctx context.Context, section string) ([]model.ReportFile, error)
}

// RecordSource is the read side of the record store used by exports.
type RecordSource interface {
	ListClients(ctx context.Context, filter service.ClientFilter) ([]model.Client, error)
	ListDeals(ctx context.Context, filter service.DealFilter) ([]model.Deal, error)
	ListTasks(ctx context.Context, filter service.TaskFilter) ([]model.Task, error)
}

// Config holds export options.
type Config struct {
	BatchLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{BatchLimit: 2000}
}

// Service implements service.Exporter.
type Service struct {
	records    RecordSource
	writer     ReportWriter
	catalog    ReportCatalog
	logger     *slog.Logger
	batchLimit int
}

var _ service.Exporter = (*Service)(nil)

// New creates an export service with the default configuration.
func New(records RecordSource, writer ReportWriter, catalog ReportCatalog, logger *slog.Logger) *Service {
	return NewWithConfig(records, writer, catalog, logger, DefaultConfig())
}

// NewWithConfig creates an export service with custom configuration.
func NewWithConfig(records RecordSource, writer ReportWriter, catalog ReportCatalog, logger *slog.Logger, config Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	limit := config.BatchLimit
	if limit <= 0 {
		limit = DefaultConfig().BatchLimit
	}
	return &Service{
		records:    records,
		writer:     writer,
		catalog:    catalog,
		logger:     logger,
		batchLimit: limit,
	}
}

// Export writes up to the batch limit of the section's most recent records into a new report.
func (s *Service) Export(ctx context.Context, section model.Section, folderID string) (*model.ReportDocument, error) {
	rows, err := s.Rows(ctx, section)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("exporting section", "section", section, "rows", rows.Len(), "limit", s.batchLimit)
	return s.writer.Export(ctx, rows, folderID)
}

// Rows fetches the record batch for a section.
func (s *Service) Rows(ctx context.Context, section model.Section) (sheets.Rows, error) {
	switch section {
	case model.SectionClients:
		clients, err := s.records.ListClients(ctx, service.ClientFilter{Limit: s.batchLimit})
		if err != nil {
			return nil, fmt.Errorf("failed to load clients: %w", err)
		}
		return sheets.ClientRows(clients), nil
	case model.SectionDeals:
		deals, err := s.records.ListDeals(ctx, service.DealFilter{Limit: s.batchLimit})
		if err != nil {
			return nil, fmt.Errorf("failed to load deals: %w", err)
		}
		return sheets.DealRows(deals), nil
	case model.SectionTasks:
		tasks, err := s.records.ListTasks(ctx, service.TaskFilter{Limit: s.batchLimit})
		if err != nil {
			return nil, fmt.Errorf("failed to load tasks: %w", err)
		}
		return sheets.TaskRows(tasks), nil
	}
	return nil, fmt.Errorf("%w: %q", sheets.ErrUnknownSection, section)
}

// ListReports returns the section's existing reports.
func (s *Service) ListReports(ctx context.Context, section string) ([]model.ReportFile, error) {
	return s.catalog.ListReports(ctx, section)
}

// Result is the outcome of one section in ExportAll.
type Result struct {
	Err      error
	Document *model.ReportDocument
	Section  model.Section
}

// ExportAll exports every section concurrently. Each export owns its own document, so one
// failing section does not cancel the others. done, if set, is called as each section finishes.
func (s *Service) ExportAll(ctx context.Context, folderID string, done func(Result)) []Result {
	results := make([]Result, len(model.Sections))
	var mu sync.Mutex

	var g errgroup.Group
	for i, section := range model.Sections {
		g.Go(func() error {
			doc, err := s.Export(ctx, section, folderID)
			res := Result{Section: section, Document: doc, Err: err}
			results[i] = res
			if done != nil {
				mu.Lock()
				done(res)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
