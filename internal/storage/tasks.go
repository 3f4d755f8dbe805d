package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/service"
)

const taskColumns = `id, title, description, client_id, deal_id, is_completed, due_date, created_at, updated_at`

// CreateTask inserts a task and fills in its id and timestamps.
func (s *SQLiteStorage) CreateTask(ctx context.Context, task *model.Task) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTask(task); err != nil {
		return err
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, client_id, deal_id, is_completed, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title, nullString(task.Description), nullInt64(task.ClientID), nullInt64(task.DealID),
		task.IsCompleted, nullTime(task.DueDate), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get task id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

// GetTask retrieves a task by id.
func (s *SQLiteStorage) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q queryable, id int64) (*model.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// UpdateTask applies the non-nil fields of patch. An empty description or a zero due
// date clears the field.
func (s *SQLiteStorage) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	if err := validatePatchString(patch.Title, "title"); err != nil {
		return nil, err
	}
	if err := validateOptionalID(patch.ClientID, "client_id"); err != nil {
		return nil, err
	}
	if err := validateOptionalID(patch.DealID, "deal_id"); err != nil {
		return nil, err
	}

	set := newSetClause()
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Description != nil {
		set.add("description", nullString(patch.Description))
	}
	if patch.ClientID != nil {
		set.add("client_id", *patch.ClientID)
	}
	if patch.DealID != nil {
		set.add("deal_id", *patch.DealID)
	}
	if patch.IsCompleted != nil {
		set.add("is_completed", *patch.IsCompleted)
	}
	if patch.DueDate != nil {
		set.add("due_date", nullTime(patch.DueDate))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := set.exec(ctx, tx, "tasks", id, s.now()); err != nil {
		if errors.Is(err, errNoRows) {
			return nil, notFound("task", id)
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task update: %w", err)
	}
	return task, nil
}

// SetTaskCompleted marks a task as done or open.
func (s *SQLiteStorage) SetTaskCompleted(ctx context.Context, id int64, completed bool) (*model.Task, error) {
	return s.UpdateTask(ctx, id, model.TaskPatch{IsCompleted: &completed})
}

// DeleteTask removes a task.
func (s *SQLiteStorage) DeleteTask(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return rowsAffected(result, "task", id)
}

// ListTasks returns tasks newest first.
func (s *SQLiteStorage) ListTasks(ctx context.Context, filter service.TaskFilter) ([]model.Task, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePaging(filter.Limit, filter.Offset); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if filter.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.DealID != nil {
		where = append(where, "deal_id = ?")
		args = append(args, *filter.DealID)
	}
	if filter.Completed != nil {
		where = append(where, "is_completed = ?")
		args = append(args, *filter.Completed)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, listLimit(filter.Limit), filter.Offset)

	return s.queryTasks(ctx, query, args...)
}

// SearchTasks matches query against title and description.
func (s *SQLiteStorage) SearchTasks(ctx context.Context, query string, limit int) ([]model.Task, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePaging(limit, 0); err != nil {
		return nil, err
	}

	pattern := likePattern(query)
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE title LIKE ? OR COALESCE(description, '') LIKE ?
		ORDER BY id DESC LIMIT ?`,
		pattern, pattern, searchLimit(limit))
}

func (s *SQLiteStorage) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row scanner) (*model.Task, error) {
	var t model.Task
	var description sql.NullString
	var clientID, dealID sql.NullInt64
	var dueDate sql.NullTime
	if err := row.Scan(&t.ID, &t.Title, &description, &clientID, &dealID,
		&t.IsCompleted, &dueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	t.ClientID = int64Ptr(clientID)
	t.DealID = int64Ptr(dealID)
	t.DueDate = timePtr(dueDate)
	return &t, nil
}
