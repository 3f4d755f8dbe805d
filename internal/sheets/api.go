package sheets

import (
	"context"

	"github.com/Veraticus/crm-sheets/internal/model"
	"google.golang.org/api/sheets/v4"
)

// SpreadsheetMimeType is the Drive MIME type of a native Google spreadsheet.
const SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Documents is the file-level surface: creating spreadsheets, sharing them and listing folders.
type Documents interface {
	CreateSpreadsheet(ctx context.Context, title, folderID string) (model.ReportFile, error)
	GrantWriter(ctx context.Context, fileID, email string) error
	ListFiles(ctx context.Context, query, orderBy string) ([]model.ReportFile, error)
}

// SheetRef identifies a tab inside a spreadsheet.
type SheetRef struct {
	Title string
	ID    int64
}

// Spreadsheets is the cell-level surface used once a document exists.
type Spreadsheets interface {
	FirstSheet(ctx context.Context, spreadsheetID string) (SheetRef, error)
	UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

// Clients bundles both surfaces authenticated as one identity.
type Clients struct {
	Documents    Documents
	Spreadsheets Spreadsheets
}
