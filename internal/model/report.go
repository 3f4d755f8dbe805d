package model

import (
	"encoding/json"
	"time"
)

// ReportDocument identifies a spreadsheet created by an export.
type ReportDocument struct {
	ID      string `json:"spreadsheet_id"`
	WebLink string `json:"webViewLink"`
	Title   string `json:"title"`
}

// ReportFile is one entry of the report catalog. A zero ModifiedAt means Drive
// reported no usable modification time.
type ReportFile struct {
	ModifiedAt time.Time
	ID         string
	Name       string
	WebLink    string
}

type reportFileJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	WebLink      string `json:"webViewLink"`
	ModifiedTime string `json:"modifiedTime"`
}

// MarshalJSON renders ModifiedAt as RFC 3339, or "" when it is unknown.
func (f ReportFile) MarshalJSON() ([]byte, error) {
	out := reportFileJSON{ID: f.ID, Name: f.Name, WebLink: f.WebLink}
	if !f.ModifiedAt.IsZero() {
		out.ModifiedTime = f.ModifiedAt.Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}
