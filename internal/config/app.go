package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/Veraticus/crm-sheets/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults used when neither the config file nor the environment sets a key.
const (
	DefaultDatabasePath = "$HOME/.local/share/crm/crm.db"
	DefaultSettingsPath = "$HOME/.config/crm/google_export_settings.json"
	DefaultServerAddr   = ":8000"
	DefaultBatchLimit   = 2000
	DefaultTimeZone     = "Local"
)

// App is the resolved application configuration.
type App struct {
	DatabasePath string
	SettingsPath string
	ServerAddr   string
	TimeZone     string
	LogLevel     string
	LogFormat    string
	BatchLimit   int
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("settings.path", DefaultSettingsPath)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("export.batch_limit", DefaultBatchLimit)
	v.SetDefault("export.time_zone", DefaultTimeZone)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the application configuration from v, expanding paths.
func Load(v *viper.Viper) (App, error) {
	app := App{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		SettingsPath: ExpandPath(v.GetString("settings.path")),
		ServerAddr:   v.GetString("server.addr"),
		BatchLimit:   v.GetInt("export.batch_limit"),
		TimeZone:     v.GetString("export.time_zone"),
		LogLevel:     strings.ToLower(v.GetString("logging.level")),
		LogFormat:    strings.ToLower(v.GetString("logging.format")),
	}
	if err := app.Validate(); err != nil {
		return App{}, err
	}
	return app, nil
}

// Validate checks if the configuration is valid.
func (a App) Validate() error {
	if a.DatabasePath == "" {
		return fmt.Errorf("%w: database path cannot be empty", common.ErrMissingConfig)
	}
	if a.SettingsPath == "" {
		return fmt.Errorf("%w: settings path cannot be empty", common.ErrMissingConfig)
	}
	if a.BatchLimit <= 0 {
		return fmt.Errorf("%w: export batch limit must be positive, got %d", common.ErrInvalidConfig, a.BatchLimit)
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		err := godotenv.Load(ExpandPath(path))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		slog.Debug("loaded environment file", "path", path)
	}
	return nil
}
