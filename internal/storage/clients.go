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

const clientColumns = `id, name, email, phone, status, notes, created_at, updated_at`

// CreateClient inserts a client and fills in its id and timestamps.
func (s *SQLiteStorage) CreateClient(ctx context.Context, client *model.Client) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateClient(client); err != nil {
		return err
	}

	if client.Status == "" {
		client.Status = model.ClientStatusActive
	}
	now := s.now()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, email, phone, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		client.Name, nullString(client.Email), nullString(client.Phone),
		client.Status, nullString(client.Notes), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get client id: %w", err)
	}
	client.ID = id
	client.CreatedAt = now
	client.UpdatedAt = now
	return nil
}

// GetClient retrieves a client by id.
func (s *SQLiteStorage) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	return getClient(ctx, s.db, id)
}

func getClient(ctx context.Context, q queryable, id int64) (*model.Client, error) {
	row := q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	client, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("client", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// UpdateClient applies the non-nil fields of patch. An empty email, phone or notes clears it.
func (s *SQLiteStorage) UpdateClient(ctx context.Context, id int64, patch model.ClientPatch) (*model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	if err := validatePatchString(patch.Name, "name"); err != nil {
		return nil, err
	}
	if err := validatePatchString(patch.Status, "status"); err != nil {
		return nil, err
	}

	set := newSetClause()
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Email != nil {
		set.add("email", nullString(patch.Email))
	}
	if patch.Phone != nil {
		set.add("phone", nullString(patch.Phone))
	}
	if patch.Status != nil {
		set.add("status", *patch.Status)
	}
	if patch.Notes != nil {
		set.add("notes", nullString(patch.Notes))
	}

	return s.updateAndFetchClient(ctx, id, set)
}

// ArchiveClient sets the client's status to archived.
func (s *SQLiteStorage) ArchiveClient(ctx context.Context, id int64) (*model.Client, error) {
	status := model.ClientStatusArchived
	return s.UpdateClient(ctx, id, model.ClientPatch{Status: &status})
}

func (s *SQLiteStorage) updateAndFetchClient(ctx context.Context, id int64, set *setClause) (*model.Client, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := set.exec(ctx, tx, "clients", id, s.now()); err != nil {
		if errors.Is(err, errNoRows) {
			return nil, notFound("client", id)
		}
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	client, err := getClient(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit client update: %w", err)
	}
	return client, nil
}

// DeleteClient removes a client.
func (s *SQLiteStorage) DeleteClient(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return rowsAffected(result, "client", id)
}

// ListClients returns clients newest first.
func (s *SQLiteStorage) ListClients(ctx context.Context, filter service.ClientFilter) ([]model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePaging(filter.Limit, filter.Offset); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, listLimit(filter.Limit), filter.Offset)

	return s.queryClients(ctx, query, args...)
}

// SearchClients matches query against name, email, phone and notes.
func (s *SQLiteStorage) SearchClients(ctx context.Context, query string, limit int) ([]model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePaging(limit, 0); err != nil {
		return nil, err
	}

	pattern := likePattern(query)
	return s.queryClients(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE name LIKE ?
			OR COALESCE(email, '') LIKE ?
			OR COALESCE(phone, '') LIKE ?
			OR COALESCE(notes, '') LIKE ?
		ORDER BY id DESC LIMIT ?`,
		pattern, pattern, pattern, pattern, searchLimit(limit))
}

func (s *SQLiteStorage) queryClients(ctx context.Context, query string, args ...any) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	clients := []model.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

func scanClient(row scanner) (*model.Client, error) {
	var c model.Client
	var email, phone, notes sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &email, &phone, &c.Status, &notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Email = stringPtr(email)
	c.Phone = stringPtr(phone)
	c.Notes = stringPtr(notes)
	return &c, nil
}
