//go:build integration
// +build integration

package sheets

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Integration_ServiceAccount(t *testing.T) {
	keyPath := os.Getenv("CRM_TEST_SERVICE_ACCOUNT_PATH")
	if keyPath == "" {
		t.Skip("Service account path not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st := settings.Settings{
		CredentialsPath: keyPath,
		FolderID:        os.Getenv("CRM_TEST_FOLDER_ID"),
	}
	source := staticSettings{st: st}
	resolver := NewResolver(NewGoogleClientFactory(logger), DefaultConfig(), logger)

	writer, err := NewWriter(DefaultConfig(), source, resolver, logger)
	require.NoError(t, err)

	doc, err := writer.Export(ctx, testDeals(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.NotEmpty(t, doc.WebLink)

	catalog := NewCatalog(source, resolver, logger)
	reports, err := catalog.ListReports(ctx, string(model.SectionDeals))
	require.NoError(t, err)

	found := false
	for _, r := range reports {
		if r.ID == doc.ID {
			found = true
		}
	}
	assert.True(t, found, "new report should be listed")
}
