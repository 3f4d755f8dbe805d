package model

import "time"

// Client statuses.
const (
	ClientStatusActive   = "active"
	ClientStatusArchived = "archived"
)

// Client is a customer record.
type Client struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	ID        int64     `json:"id"`
}

// ClientPatch holds the fields of a partial client update. Nil fields are left unchanged.
type ClientPatch struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}
