// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/crm-sheets/internal/model"
)

// DefaultListLimit applies when a filter leaves Limit unset.
const DefaultListLimit = 100

// ClientFilter defines filtering options for client queries.
type ClientFilter struct {
	Status string
	Limit  int
	Offset int
}

// DealFilter defines filtering options for deal queries.
type DealFilter struct {
	ClientID *int64
	Status   string
	Limit    int
	Offset   int
}

// TaskFilter defines filtering options for task queries.
type TaskFilter struct {
	ClientID  *int64
	DealID    *int64
	Completed *bool
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Client operations
	CreateClient(ctx context.Context, client *model.Client) error
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	UpdateClient(ctx context.Context, id int64, patch model.ClientPatch) (*model.Client, error)
	DeleteClient(ctx context.Context, id int64) error
	ArchiveClient(ctx context.Context, id int64) (*model.Client, error)
	ListClients(ctx context.Context, filter ClientFilter) ([]model.Client, error)
	SearchClients(ctx context.Context, query string, limit int) ([]model.Client, error)

	// Deal operations
	CreateDeal(ctx context.Context, deal *model.Deal) error
	GetDeal(ctx context.Context, id int64) (*model.Deal, error)
	UpdateDeal(ctx context.Context, id int64, patch model.DealPatch) (*model.Deal, error)
	DeleteDeal(ctx context.Context, id int64) error
	ListDeals(ctx context.Context, filter DealFilter) ([]model.Deal, error)
	SearchDeals(ctx context.Context, query string, limit int) ([]model.Deal, error)

	// Task operations
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	SetTaskCompleted(ctx context.Context, id int64, completed bool) (*model.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	SearchTasks(ctx context.Context, query string, limit int) ([]model.Task, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Exporter turns stored records into spreadsheet reports.
type Exporter interface {
	Export(ctx context.Context, section model.Section, folderID string) (*model.ReportDocument, error)
	ListReports(ctx context.Context, section string) ([]model.ReportFile, error)
}
