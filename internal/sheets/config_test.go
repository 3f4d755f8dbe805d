package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "explicit zone",
			config:  Config{TimeZone: "Europe/Moscow", TokenFileName: "token.json"},
			wantErr: false,
		},
		{
			name:    "unknown zone",
			config:  Config{TimeZone: "Mars/Olympus", TokenFileName: "token.json"},
			wantErr: true,
			errMsg:  "invalid time zone",
		},
		{
			name:    "missing token file name",
			config:  Config{TimeZone: "UTC"},
			wantErr: true,
			errMsg:  "token file name cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.TimeZone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
