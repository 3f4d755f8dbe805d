// Package sheets exports CRM records into newly created Google spreadsheets and lists
// previously generated reports.
package sheets

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the configuration for the report writer.
type Config struct {
	// TimeZone is used for title timestamps. "Local" means the process time zone.
	TimeZone string
	// TokenFileName is the delegated user token stored next to the client secret.
	TokenFileName string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TimeZone:      "Local",
		TokenFileName: "token_drive_user.json",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TokenFileName == "" {
		return errors.New("token file name cannot be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
