package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/crm-sheets/internal/model"
)

// TitleTimeLayout is the timestamp part of a report title.
const TitleTimeLayout = "2006-01-02 15-04-05"

// ReportTitle composes "<section prefix> <YYYY-MM-DD HH-MM-SS>".
func ReportTitle(section model.Section, at time.Time) string {
	return section.ReportPrefix() + " " + at.Format(TitleTimeLayout)
}

// Writer exports one section into a brand-new spreadsheet per call.
type Writer struct {
	lastStamp map[model.Section]time.Time
	settings  SettingsSource
	resolver  AuthResolver
	logger    *slog.Logger
	location  *time.Location
	now       func() time.Time
	config    Config
	mu        sync.Mutex
}

// NewWriter creates a report writer.
func NewWriter(config Config, source SettingsSource, resolver AuthResolver, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := config.Location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{
		config:    config,
		settings:  source,
		resolver:  resolver,
		logger:    logger,
		location:  loc,
		now:       time.Now,
		lastStamp: make(map[model.Section]time.Time),
	}, nil
}

// SetClock replaces the time source used for titles.
func (w *Writer) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// Export creates a spreadsheet for rows, fills it and formats it. An empty folderID falls
// back to the configured folder, then to the owner's root. A failure after creation
// leaves the document in place.
func (w *Writer) Export(ctx context.Context, rows Rows, folderID string) (*model.ReportDocument, error) {
	section := rows.Section()
	if !section.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	logger := w.logger.With("section", section)

	st, err := w.settings.Current()
	if err != nil {
		return nil, err
	}
	if folderID == "" {
		folderID = st.FolderID
	}

	auth, err := w.resolver.Resolve(ctx, st)
	if err != nil {
		logger.Error("auth resolution failed", "error", err)
		return nil, err
	}
	authCtx := auth.Context()

	title := ReportTitle(section, w.nextStamp(section))

	file, err := auth.Documents().CreateSpreadsheet(ctx, title, folderID)
	if err != nil {
		logger.Error("document creation failed", "error", err, "title", title)
		return nil, fmt.Errorf("%w: %w", ErrDocumentCreationFailed, err)
	}
	logger.Info("document created",
		"spreadsheet_id", file.ID,
		"title", title,
		"mode", authCtx.Mode,
		"owner", authCtx.OwnerIdentity)

	if err := auth.Authorize(ctx, file.ID); err != nil {
		logger.Error("granting writer access failed", "error", err, "spreadsheet_id", file.ID)
		return nil, err
	}

	layout := BuildLayout(rows)
	sheet, err := w.writeValues(ctx, auth.Spreadsheets(), file.ID, layout)
	if err != nil {
		logger.Error("value write failed", "error", err, "spreadsheet_id", file.ID)
		return nil, err
	}
	logger.Info("values written",
		"spreadsheet_id", file.ID,
		"rows", len(layout.Values),
		"data_rows", layout.DataRowCount,
		"writer", authCtx.WriterIdentity)

	requests := FormatRequests(layout, sheet.ID)
	if err := auth.Spreadsheets().BatchUpdate(ctx, file.ID, requests); err != nil {
		logger.Error("formatting failed", "error", err, "spreadsheet_id", file.ID)
		return nil, fmt.Errorf("%w: %w", ErrFormatFailed, err)
	}
	logger.Info("formatting applied", "spreadsheet_id", file.ID, "requests", len(requests))

	return &model.ReportDocument{
		ID:      file.ID,
		WebLink: file.WebLink,
		Title:   title,
	}, nil
}

// writeValues performs the single bulk write of the whole matrix into the first sheet.
func (w *Writer) writeValues(ctx context.Context, spreadsheets Spreadsheets, spreadsheetID string, layout *Layout) (SheetRef, error) {
	sheet, err := spreadsheets.FirstSheet(ctx, spreadsheetID)
	if err != nil {
		return SheetRef{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	rng, err := layout.Range()
	if err != nil {
		return SheetRef{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if err := spreadsheets.UpdateValues(ctx, spreadsheetID, qualifyRange(sheet.Title, rng), layout.Values); err != nil {
		return SheetRef{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return sheet, nil
}

// nextStamp returns the title timestamp for section, bumped by a second when the clock
// has not moved past the previous stamp of the same section. Sections have distinct
// prefixes, so they never collide with each other.
func (w *Writer) nextStamp(section model.Section) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	stamp := w.now().In(w.location).Truncate(time.Second)
	if last, ok := w.lastStamp[section]; ok && !stamp.After(last) {
		stamp = last.Add(time.Second)
	}
	w.lastStamp[section] = stamp
	return stamp
}
