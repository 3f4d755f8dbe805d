package model

import "time"

// Deal statuses.
const (
	DealStatusDraft      = "draft"
	DealStatusInProgress = "in_progress"
	DealStatusWon        = "won"
	DealStatusLost       = "lost"
)

// DealStatuses is the fixed status order used in deal summaries.
var DealStatuses = []string{DealStatusDraft, DealStatusInProgress, DealStatusWon, DealStatusLost}

// Deal is a sales opportunity, optionally linked to a client.
type Deal struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ClientID  *int64    `json:"client_id,omitempty"`
	Amount    *float64  `json:"amount,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	ID        int64     `json:"id"`
}

// DealPatch holds the fields of a partial deal update.
type DealPatch struct {
	ClientID *int64   `json:"client_id,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	Title    *string  `json:"title,omitempty"`
	Status   *string  `json:"status,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}
