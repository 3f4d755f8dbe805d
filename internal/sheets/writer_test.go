package sheets

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 4, 5, 14, 30, 15, 0, time.UTC)

func newTestWriter(t *testing.T, st settings.Settings, factory *MockClientFactory) *Writer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TimeZone = "UTC"
	writer, err := NewWriter(cfg, staticSettings{st: st}, NewResolver(factory, cfg, nil), nil)
	require.NoError(t, err)
	writer.SetClock(func() time.Time { return fixedNow })
	return writer
}

func TestReportTitle(t *testing.T) {
	assert.Equal(t, "CRM — Отчёт Клиенты 2025-04-05 14-30-15", ReportTitle(model.SectionClients, fixedNow))
	assert.Equal(t, "CRM — Отчёт Задачи 2025-04-05 14-30-15", ReportTitle(model.SectionTasks, fixedNow))
}

func TestWriter_ExportServiceMode(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	writer := newTestWriter(t, settings.Settings{CredentialsPath: files.ServiceKey, FolderID: "cfg-folder"}, factory)

	doc, err := writer.Export(context.Background(), testDeals(), "")
	require.NoError(t, err)

	mock := factory.Service
	assert.Equal(t, []string{"create", "first_sheet", "values", "batch"}, mock.CallLog())
	require.Len(t, mock.Created, 1)
	assert.Equal(t, doc.ID, mock.Created[0].ID)
	assert.Equal(t, mock.Created[0].WebLink, doc.WebLink)
	assert.Equal(t, "CRM — Отчёт Сделки 2025-04-05 14-30-15", doc.Title)
	assert.Equal(t, []string{"cfg-folder"}, mock.CreatedFolders)

	layout := BuildLayout(testDeals())
	require.Len(t, mock.ValueWrites, 1)
	write := mock.ValueWrites[0]
	assert.Equal(t, "'Sheet1'!A1:I12", write.Range)
	assert.Equal(t, layout.Values, write.Values)

	require.Len(t, mock.Batches, 1)
	assert.Len(t, mock.Batches[0].Requests, len(FormatRequests(layout, 0)))
}

func TestWriter_ExportFolderOverride(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	writer := newTestWriter(t, settings.Settings{CredentialsPath: files.ServiceKey, FolderID: "cfg-folder"}, factory)

	_, err := writer.Export(context.Background(), testClients(), "explicit")
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit"}, factory.Service.CreatedFolders)
}

func TestWriter_ExportDelegatedGrantsBeforeWrite(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	writer := newTestWriter(t, settings.Settings{
		CredentialsPath:  files.ServiceKey,
		ClientSecretPath: files.ClientSecret,
	}, factory)

	doc, err := writer.Export(context.Background(), testTasks(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "grant"}, factory.User.CallLog())
	assert.Equal(t, []GrantCall{{FileID: doc.ID, Email: testServiceEmail}}, factory.User.Grants)

	assert.Equal(t, []string{"first_sheet", "values", "batch"}, factory.Service.CallLog())
	require.Len(t, factory.Service.ValueWrites, 1)
	assert.Equal(t, doc.ID, factory.Service.ValueWrites[0].SpreadsheetID)
}

func TestWriter_SequentialExportsAreDistinct(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	writer := newTestWriter(t, settings.Settings{CredentialsPath: files.ServiceKey}, factory)

	first, err := writer.Export(context.Background(), testClients(), "")
	require.NoError(t, err)
	second, err := writer.Export(context.Background(), testClients(), "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Title, second.Title)
	assert.True(t, strings.HasSuffix(first.Title, "2025-04-05 14-30-15"))
	assert.True(t, strings.HasSuffix(second.Title, "2025-04-05 14-30-16"))
	assert.Len(t, factory.Service.Created, 2)
}

func TestWriter_EmptyRowsStillExport(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	writer := newTestWriter(t, settings.Settings{CredentialsPath: files.ServiceKey}, factory)

	_, err := writer.Export(context.Background(), TaskRows{}, "")
	require.NoError(t, err)
	require.Len(t, factory.Service.ValueWrites, 1)
	assert.Equal(t, "'Sheet1'!A1:J7", factory.Service.ValueWrites[0].Range)
}

func TestWriter_ExportFailures(t *testing.T) {
	remote := errors.New("quota exceeded")

	tests := []struct {
		setup     func(m *MockDocuments)
		wantErr   error
		name      string
		wantCalls []string
	}{
		{
			name:      "creation",
			setup:     func(m *MockDocuments) { m.CreateErr = remote },
			wantErr:   ErrDocumentCreationFailed,
			wantCalls: []string{"create"},
		},
		{
			name:      "value write",
			setup:     func(m *MockDocuments) { m.UpdateErr = remote },
			wantErr:   ErrWriteFailed,
			wantCalls: []string{"create", "first_sheet", "values"},
		},
		{
			name:      "sheet lookup",
			setup:     func(m *MockDocuments) { m.FirstSheetErr = remote },
			wantErr:   ErrWriteFailed,
			wantCalls: []string{"create", "first_sheet"},
		},
		{
			name:      "formatting",
			setup:     func(m *MockDocuments) { m.BatchErr = remote },
			wantErr:   ErrFormatFailed,
			wantCalls: []string{"create", "first_sheet", "values", "batch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := writeCredentialFiles(t)
			factory := newMockFactory()
			tt.setup(factory.Service)
			writer := newTestWriter(t, settings.Settings{CredentialsPath: files.ServiceKey}, factory)

			doc, err := writer.Export(context.Background(), testClients(), "")
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, remote, "remote message must be preserved")
			assert.Equal(t, tt.wantCalls, factory.Service.CallLog())
		})
	}
}

func TestWriter_ShareFailureStopsBeforeWrite(t *testing.T) {
	files := writeCredentialFiles(t)
	factory := newMockFactory()
	factory.User.GrantErr = errors.New("forbidden")
	writer := newTestWriter(t, settings.Settings{
		CredentialsPath:  files.ServiceKey,
		ClientSecretPath: files.ClientSecret,
	}, factory)

	_, err := writer.Export(context.Background(), testDeals(), "")
	assert.ErrorIs(t, err, ErrShareFailed)
	assert.Empty(t, factory.Service.CallLog())
}

func TestWriter_MissingCredentials(t *testing.T) {
	factory := newMockFactory()
	writer := newTestWriter(t, settings.Settings{}, factory)

	_, err := writer.Export(context.Background(), testDeals(), "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Empty(t, factory.Service.CallLog())
}

func TestWriter_StampNeverRepeats(t *testing.T) {
	writer := newTestWriter(t, settings.Settings{}, newMockFactory())

	clock := fixedNow
	writer.SetClock(func() time.Time { return clock })

	first := writer.nextStamp(model.SectionDeals)
	clock = fixedNow.Add(300 * time.Millisecond)
	second := writer.nextStamp(model.SectionDeals)
	clock = fixedNow.Add(10 * time.Second)
	third := writer.nextStamp(model.SectionDeals)

	assert.True(t, fixedNow.Equal(first))
	assert.True(t, fixedNow.Add(time.Second).Equal(second))
	assert.True(t, fixedNow.Add(10*time.Second).Equal(third))
}

func TestWriter_StampIsPerSection(t *testing.T) {
	factory := newMockFactory()
	files := writeCredentialFiles(t)
	writer := newTestWriter(t, settings.Settings{CredentialsPath: files.ServiceKey}, factory)

	ctx := context.Background()
	clients, err := writer.Export(ctx, ClientRows{}, "")
	require.NoError(t, err)
	deals, err := writer.Export(ctx, testDeals(), "")
	require.NoError(t, err)
	tasks, err := writer.Export(ctx, TaskRows{}, "")
	require.NoError(t, err)
	again, err := writer.Export(ctx, testDeals(), "")
	require.NoError(t, err)

	assert.Equal(t, ReportTitle(model.SectionClients, fixedNow), clients.Title)
	assert.Equal(t, ReportTitle(model.SectionDeals, fixedNow), deals.Title)
	assert.Equal(t, ReportTitle(model.SectionTasks, fixedNow), tasks.Title)
	assert.Equal(t, ReportTitle(model.SectionDeals, fixedNow.Add(time.Second)), again.Title)
}
