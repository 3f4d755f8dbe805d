package model

import "time"

// Task is a reminder, optionally linked to a client and/or a deal.
type Task struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Description *string    `json:"description,omitempty"`
	ClientID    *int64     `json:"client_id,omitempty"`
	DealID      *int64     `json:"deal_id,omitempty"`
	Title       string     `json:"title"`
	ID          int64      `json:"id"`
	IsCompleted bool       `json:"is_completed"`
}

// TaskPatch holds the fields of a partial task update.
type TaskPatch struct {
	DueDate     *time.Time `json:"due_date,omitempty"`
	Description *string    `json:"description,omitempty"`
	ClientID    *int64     `json:"client_id,omitempty"`
	DealID      *int64     `json:"deal_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	IsCompleted *bool      `json:"is_completed,omitempty"`
}
