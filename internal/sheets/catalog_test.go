package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceCatalog(t *testing.T, folderID string) (*Catalog, *MockClientFactory) {
	t.Helper()
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	source := staticSettings{st: settings.Settings{FolderID: folderID, CredentialsPath: files.ServiceKey}}
	return NewCatalog(source, NewResolver(factory, DefaultConfig(), nil), nil), factory
}

func TestCatalog_ListReportsFiltersByPrefix(t *testing.T) {
	catalog, factory := newServiceCatalog(t, "folder-1")
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	factory.Service.AddFile(model.ReportFile{ID: "a", Name: "CRM — Отчёт Клиенты 2025-01-01 10-00-00", ModifiedAt: base})
	factory.Service.AddFile(model.ReportFile{ID: "b", Name: "Unrelated Doc", ModifiedAt: base.Add(time.Hour)})
	factory.Service.AddFile(model.ReportFile{ID: "c", Name: "CRM — Отчёт Сделки 2025-01-02 10-00-00", ModifiedAt: base.Add(2 * time.Hour)})
	factory.Service.AddFile(model.ReportFile{ID: "d", Name: "CRM — Отчёт Клиенты 2025-01-03 10-00-00", ModifiedAt: base.Add(3 * time.Hour)})

	reports, err := catalog.ListReports(context.Background(), "clients")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "d", reports[0].ID, "most recently modified first")
	assert.Equal(t, "a", reports[1].ID)

	require.Len(t, factory.Service.ListQueries, 1)
	assert.Equal(t, ReportQuery("folder-1"), factory.Service.ListQueries[0])
}

func TestCatalog_ExactScenario(t *testing.T) {
	catalog, factory := newServiceCatalog(t, "")
	factory.Service.AddFile(model.ReportFile{ID: "r1", Name: "CRM — Отчёт Клиенты 2025-01-01 10-00-00"})
	factory.Service.AddFile(model.ReportFile{ID: "u1", Name: "Unrelated Doc", ModifiedAt: time.Unix(10, 0)})

	reports, err := catalog.ListReports(context.Background(), "clients")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "r1", reports[0].ID)

	unknown, err := catalog.ListReports(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
	assert.Len(t, factory.Service.ListQueries, 1, "unknown section must not reach the remote service")
}

func TestCatalog_UnknownSectionSkipsAuth(t *testing.T) {
	catalog := NewCatalog(staticSettings{}, NewResolver(newMockFactory(), DefaultConfig(), nil), nil)

	for _, section := range []string{"invoices", "CLIENTS", " deals", ""} {
		reports, err := catalog.ListReports(context.Background(), section)
		require.NoError(t, err, section)
		assert.Empty(t, reports, section)
	}
}

func TestCatalog_ErrorsPropagate(t *testing.T) {
	catalog := NewCatalog(staticSettings{}, NewResolver(newMockFactory(), DefaultConfig(), nil), nil)
	_, err := catalog.ListReports(context.Background(), "deals")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	listErr := errors.New("drive unavailable")
	catalog, factory := newServiceCatalog(t, "")
	factory.Service.ListErr = listErr
	_, err = catalog.ListReports(context.Background(), "deals")
	assert.ErrorIs(t, err, listErr)
}

func TestReportQuery(t *testing.T) {
	assert.Equal(t,
		"trashed = false and mimeType = 'application/vnd.google-apps.spreadsheet' and 'root' in parents",
		ReportQuery(""))
	assert.Equal(t,
		`trashed = false and mimeType = 'application/vnd.google-apps.spreadsheet' and 'it\'s' in parents`,
		ReportQuery("it's"))
}

func TestFilterReports(t *testing.T) {
	files := []model.ReportFile{
		{ID: "1", Name: "CRM — Отчёт Задачи 2025-01-01 00-00-00"},
		{ID: "2", Name: "Copy of CRM — Отчёт Задачи"},
		{ID: "3", Name: "CRM — Отчёт Задачи"},
	}

	got := FilterReports(files, model.SectionTasks)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Empty(t, FilterReports(files, model.Section("other")))
}
