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

const dealColumns = `id, client_id, title, amount, status, notes, created_at, updated_at`

// CreateDeal inserts a deal and fills in its id and timestamps.
func (s *SQLiteStorage) CreateDeal(ctx context.Context, deal *model.Deal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDeal(deal); err != nil {
		return err
	}

	if deal.Status == "" {
		deal.Status = model.DealStatusDraft
	}
	now := s.now()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO deals (client_id, title, amount, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(deal.ClientID), deal.Title, nullFloat64(deal.Amount),
		deal.Status, nullString(deal.Notes), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert deal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get deal id: %w", err)
	}
	deal.ID = id
	deal.CreatedAt = now
	deal.UpdatedAt = now
	return nil
}

// GetDeal retrieves a deal by id.
func (s *SQLiteStorage) GetDeal(ctx context.Context, id int64) (*model.Deal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	return getDeal(ctx, s.db, id)
}

func getDeal(ctx context.Context, q queryable, id int64) (*model.Deal, error) {
	row := q.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id)
	deal, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("deal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return deal, nil
}

// UpdateDeal applies the non-nil fields of patch. Empty notes clears them.
func (s *SQLiteStorage) UpdateDeal(ctx context.Context, id int64, patch model.DealPatch) (*model.Deal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	if err := validatePatchString(patch.Title, "title"); err != nil {
		return nil, err
	}
	if err := validatePatchString(patch.Status, "status"); err != nil {
		return nil, err
	}
	if err := validateOptionalID(patch.ClientID, "client_id"); err != nil {
		return nil, err
	}
	if err := validateAmount(patch.Amount); err != nil {
		return nil, err
	}

	set := newSetClause()
	if patch.ClientID != nil {
		set.add("client_id", *patch.ClientID)
	}
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Amount != nil {
		set.add("amount", *patch.Amount)
	}
	if patch.Status != nil {
		set.add("status", *patch.Status)
	}
	if patch.Notes != nil {
		set.add("notes", nullString(patch.Notes))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := set.exec(ctx, tx, "deals", id, s.now()); err != nil {
		if errors.Is(err, errNoRows) {
			return nil, notFound("deal", id)
		}
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	deal, err := getDeal(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deal update: %w", err)
	}
	return deal, nil
}

// DeleteDeal removes a deal.
func (s *SQLiteStorage) DeleteDeal(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	return rowsAffected(result, "deal", id)
}

// ListDeals returns deals newest first.
func (s *SQLiteStorage) ListDeals(ctx context.Context, filter service.DealFilter) ([]model.Deal, error) {
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
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + dealColumns + ` FROM deals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, listLimit(filter.Limit), filter.Offset)

	return s.queryDeals(ctx, query, args...)
}

// SearchDeals matches query against title and notes.
func (s *SQLiteStorage) SearchDeals(ctx context.Context, query string, limit int) ([]model.Deal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePaging(limit, 0); err != nil {
		return nil, err
	}

	pattern := likePattern(query)
	return s.queryDeals(ctx, `
		SELECT `+dealColumns+` FROM deals
		WHERE title LIKE ? OR COALESCE(notes, '') LIKE ?
		ORDER BY id DESC LIMIT ?`,
		pattern, pattern, searchLimit(limit))
}

func (s *SQLiteStorage) queryDeals(ctx context.Context, query string, args ...any) ([]model.Deal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	deals := []model.Deal{}
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deals: %w", err)
	}
	return deals, nil
}

func scanDeal(row scanner) (*model.Deal, error) {
	var d model.Deal
	var clientID sql.NullInt64
	var amount sql.NullFloat64
	var notes sql.NullString
	if err := row.Scan(&d.ID, &clientID, &d.Title, &amount, &d.Status, &notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ClientID = int64Ptr(clientID)
	d.Amount = float64Ptr(amount)
	d.Notes = stringPtr(notes)
	return &d, nil
}
