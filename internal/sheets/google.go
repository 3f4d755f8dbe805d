package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/crm-sheets/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for both identities.
var Scopes = []string{drive.DriveScope, sheets.SpreadsheetsScope}

const (
	fileFields     = googleapi.Field("id, name, webViewLink, modifiedTime")
	fileListFields = googleapi.Field("nextPageToken, files(id, name, webViewLink, modifiedTime)")
	listPageSize   = 100
)

// GoogleClientFactory builds API clients against the live Google services.
type GoogleClientFactory struct {
	logger *slog.Logger
}

// NewGoogleClientFactory creates a factory for live clients.
func NewGoogleClientFactory(logger *slog.Logger) *GoogleClientFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleClientFactory{logger: logger}
}

// ServiceClients authenticates with a service account key.
func (f *GoogleClientFactory) ServiceClients(ctx context.Context, credentialsJSON []byte) (Clients, error) {
	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, Scopes...)
	if err != nil {
		return Clients{}, fmt.Errorf("%w: unable to parse service account key: %w", ErrInvalidCredentials, err)
	}
	f.logger.Debug("using service account", "email", jwtConfig.Email)
	return newClients(ctx, jwtConfig.Client(ctx))
}

// UserClients authenticates as the delegated user. A refreshed token is written back to tokenFile.
func (f *GoogleClientFactory) UserClients(ctx context.Context, clientSecretJSON []byte, token *oauth2.Token, tokenFile string) (Clients, error) {
	oauthConfig, err := google.ConfigFromJSON(clientSecretJSON, Scopes...)
	if err != nil {
		return Clients{}, fmt.Errorf("%w: unable to parse client secret: %w", ErrInvalidCredentials, err)
	}

	token, err = RefreshTokenIfNeeded(ctx, oauthConfig, token, tokenFile)
	if err != nil {
		return Clients{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	f.logger.Debug("using delegated user token", "expiry", token.Expiry)
	return newClients(ctx, oauthConfig.Client(ctx, token))
}

func newClients(ctx context.Context, httpClient *http.Client) (Clients, error) {
	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return Clients{}, fmt.Errorf("unable to create drive service: %w", err)
	}
	sheetsSrv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return Clients{}, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return Clients{
		Documents:    &googleDocuments{service: driveSrv},
		Spreadsheets: &googleSpreadsheets{service: sheetsSrv},
	}, nil
}

type googleDocuments struct {
	service *drive.Service
}

func (d *googleDocuments) CreateSpreadsheet(ctx context.Context, title, folderID string) (model.ReportFile, error) {
	file := &drive.File{
		Name:     title,
		MimeType: SpreadsheetMimeType,
	}
	if folderID != "" {
		file.Parents = []string{folderID}
	}

	created, err := d.service.Files.Create(file).
		Fields(fileFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return model.ReportFile{}, err
	}
	return reportFile(created), nil
}

func (d *googleDocuments) GrantWriter(ctx context.Context, fileID, email string) error {
	permission := &drive.Permission{
		Type:         "user",
		Role:         "writer",
		EmailAddress: email,
	}
	_, err := d.service.Permissions.Create(fileID, permission).
		SendNotificationEmail(false).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	return err
}

func (d *googleDocuments) ListFiles(ctx context.Context, query, orderBy string) ([]model.ReportFile, error) {
	var files []model.ReportFile
	var pageToken string
	for isRemaining := true; isRemaining; isRemaining = pageToken != "" {
		fileList, err := d.service.Files.
			List().
			Q(query).
			OrderBy(orderBy).
			PageSize(listPageSize).
			PageToken(pageToken).
			Fields(fileListFields).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list files: %w", err)
		}

		pageToken = fileList.NextPageToken
		for _, f := range fileList.Files {
			files = append(files, reportFile(f))
		}
	}
	return files, nil
}

func reportFile(f *drive.File) model.ReportFile {
	out := model.ReportFile{
		ID:      f.Id,
		Name:    f.Name,
		WebLink: f.WebViewLink,
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.ModifiedAt = t
	}
	return out
}

type googleSpreadsheets struct {
	service *sheets.Service
}

func (s *googleSpreadsheets) FirstSheet(ctx context.Context, spreadsheetID string) (SheetRef, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return SheetRef{}, err
	}
	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return SheetRef{}, fmt.Errorf("spreadsheet %s has no sheets", spreadsheetID)
	}
	props := spreadsheet.Sheets[0].Properties
	return SheetRef{ID: props.SheetId, Title: props.Title}, nil
}

func (s *googleSpreadsheets) UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	valueRange := &sheets.ValueRange{
		Range:  rng,
		Values: values,
	}
	_, err := s.service.Spreadsheets.Values.Update(spreadsheetID, rng, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (s *googleSpreadsheets) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := s.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
