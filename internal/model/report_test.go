package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportFile_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		want string
		file ReportFile
	}{
		{
			name: "known modification time",
			file: ReportFile{ID: "a", Name: "n", WebLink: "l", ModifiedAt: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
			want: `{"id":"a","name":"n","webViewLink":"l","modifiedTime":"2025-01-01T10:00:00Z"}`,
		},
		{
			name: "unknown modification time",
			file: ReportFile{ID: "b", Name: "n", WebLink: "l"},
			want: `{"id":"b","name":"n","webViewLink":"l","modifiedTime":""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.file)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}
