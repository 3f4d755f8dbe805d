package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/settings"
)

const catalogOrder = "modifiedTime desc"

// SettingsSource supplies the current settings with credential paths resolved.
type SettingsSource interface {
	Current() (settings.Settings, error)
}

// Catalog lists previously generated reports.
type Catalog struct {
	settings SettingsSource
	resolver AuthResolver
	logger   *slog.Logger
}

// NewCatalog creates a catalog.
func NewCatalog(source SettingsSource, resolver AuthResolver, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{settings: source, resolver: resolver, logger: logger}
}

// ListReports returns the reports of a section in the configured folder, most recently
// modified first. An unknown section yields an empty list without touching the remote service.
func (c *Catalog) ListReports(ctx context.Context, section string) ([]model.ReportFile, error) {
	sec, ok := model.ParseSection(section)
	if !ok {
		c.logger.Debug("unknown section in catalog lookup", "section", section)
		return []model.ReportFile{}, nil
	}

	st, err := c.settings.Current()
	if err != nil {
		return nil, err
	}
	auth, err := c.resolver.Resolve(ctx, st)
	if err != nil {
		return nil, err
	}

	files, err := auth.Documents().ListFiles(ctx, ReportQuery(st.FolderID), catalogOrder)
	if err != nil {
		return nil, err
	}

	reports := FilterReports(files, sec)
	c.logger.Info("listed reports",
		"section", sec,
		"folder", folderOrRoot(st.FolderID),
		"matched", len(reports),
		"scanned", len(files))
	return reports, nil
}

// ReportQuery builds the Drive query for non-trashed spreadsheets directly inside a folder.
func ReportQuery(folderID string) string {
	return fmt.Sprintf("trashed = false and mimeType = '%s' and '%s' in parents",
		SpreadsheetMimeType, escapeQuery(folderOrRoot(folderID)))
}

// FilterReports keeps files whose name starts with the section's report prefix,
// preserving the input order.
func FilterReports(files []model.ReportFile, section model.Section) []model.ReportFile {
	prefix := section.ReportPrefix()
	out := make([]model.ReportFile, 0, len(files))
	if prefix == "" {
		return out
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name, prefix) {
			out = append(out, f)
		}
	}
	return out
}

func folderOrRoot(folderID string) string {
	if folderID == "" {
		return "root"
	}
	return folderID
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
