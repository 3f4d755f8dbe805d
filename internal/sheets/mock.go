package sheets

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/crm-sheets/internal/model"
	"golang.org/x/oauth2"
	"google.golang.org/api/sheets/v4"
)

// MockDocuments is an in-memory stand-in for both Google surfaces.
type MockDocuments struct {
	CreateErr      error
	GrantErr       error
	ListErr        error
	FirstSheetErr  error
	UpdateErr      error
	BatchErr       error
	Now            func() time.Time
	files          map[string]model.ReportFile
	SheetTitle     string
	Created        []model.ReportFile
	CreatedFolders []string
	Grants         []GrantCall
	ValueWrites    []ValueWrite
	Batches        []BatchCall
	ListQueries    []string
	Calls          []string
	nextID         int
	mu             sync.Mutex
}

// GrantCall records a GrantWriter call.
type GrantCall struct {
	FileID string
	Email  string
}

// ValueWrite records an UpdateValues call.
type ValueWrite struct {
	SpreadsheetID string
	Range         string
	Values        [][]any
}

// BatchCall records a BatchUpdate call.
type BatchCall struct {
	SpreadsheetID string
	Requests      []*sheets.Request
}

// NewMockDocuments creates an empty mock.
func NewMockDocuments() *MockDocuments {
	return &MockDocuments{
		files:      make(map[string]model.ReportFile),
		SheetTitle: "Sheet1",
		Now:        time.Now,
	}
}

// Clients exposes the mock as both surfaces.
func (m *MockDocuments) Clients() Clients {
	return Clients{Documents: m, Spreadsheets: m}
}

// AddFile seeds a file for ListFiles.
func (m *MockDocuments) AddFile(f model.ReportFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[f.ID] = f
}

// CreateSpreadsheet implements Documents.
func (m *MockDocuments) CreateSpreadsheet(_ context.Context, title, folderID string) (model.ReportFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "create")
	if m.CreateErr != nil {
		return model.ReportFile{}, m.CreateErr
	}

	m.nextID++
	id := fmt.Sprintf("doc-%d", m.nextID)
	file := model.ReportFile{
		ID:         id,
		Name:       title,
		WebLink:    "https://docs.google.com/spreadsheets/d/" + id + "/edit",
		ModifiedAt: m.Now(),
	}
	m.files[id] = file
	m.Created = append(m.Created, file)
	m.CreatedFolders = append(m.CreatedFolders, folderID)
	return file, nil
}

// GrantWriter implements Documents.
func (m *MockDocuments) GrantWriter(_ context.Context, fileID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "grant")
	if m.GrantErr != nil {
		return m.GrantErr
	}
	m.Grants = append(m.Grants, GrantCall{FileID: fileID, Email: email})
	return nil
}

// ListFiles implements Documents. The query is recorded, not evaluated; every seeded
// or created file is returned newest first.
func (m *MockDocuments) ListFiles(_ context.Context, query, _ string) ([]model.ReportFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "list")
	m.ListQueries = append(m.ListQueries, query)
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	files := make([]model.ReportFile, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, f)
	}
	sortFilesByModified(files)
	return files, nil
}

// FirstSheet implements Spreadsheets.
func (m *MockDocuments) FirstSheet(_ context.Context, _ string) (SheetRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "first_sheet")
	if m.FirstSheetErr != nil {
		return SheetRef{}, m.FirstSheetErr
	}
	return SheetRef{ID: 0, Title: m.SheetTitle}, nil
}

// UpdateValues implements Spreadsheets.
func (m *MockDocuments) UpdateValues(_ context.Context, spreadsheetID, rng string, values [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "values")
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.ValueWrites = append(m.ValueWrites, ValueWrite{SpreadsheetID: spreadsheetID, Range: rng, Values: values})
	return nil
}

// BatchUpdate implements Spreadsheets.
func (m *MockDocuments) BatchUpdate(_ context.Context, spreadsheetID string, requests []*sheets.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "batch")
	if m.BatchErr != nil {
		return m.BatchErr
	}
	m.Batches = append(m.Batches, BatchCall{SpreadsheetID: spreadsheetID, Requests: requests})
	return nil
}

// CallLog returns a copy of the call order.
func (m *MockDocuments) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}

// MockClientFactory hands out fixed mocks and records how it was asked.
type MockClientFactory struct {
	Service     *MockDocuments
	User        *MockDocuments
	ServiceErr  error
	UserErr     error
	ServiceKeys [][]byte
	UserTokens  []*oauth2.Token
	mu          sync.Mutex
}

// ServiceClients implements ClientFactory.
func (f *MockClientFactory) ServiceClients(_ context.Context, credentialsJSON []byte) (Clients, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ServiceKeys = append(f.ServiceKeys, credentialsJSON)
	if f.ServiceErr != nil {
		return Clients{}, f.ServiceErr
	}
	return f.Service.Clients(), nil
}

// UserClients implements ClientFactory.
func (f *MockClientFactory) UserClients(_ context.Context, _ []byte, token *oauth2.Token, _ string) (Clients, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.UserTokens = append(f.UserTokens, token)
	if f.UserErr != nil {
		return Clients{}, f.UserErr
	}
	return f.User.Clients(), nil
}

func sortFilesByModified(files []model.ReportFile) {
	slices.SortStableFunc(files, func(a, b model.ReportFile) int {
		return cmp.Compare(b.ModifiedAt.UnixNano(), a.ModifiedAt.UnixNano())
	})
}
