package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/crm-sheets/internal/common"
	"github.com/Veraticus/crm-sheets/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidID    = errors.New("id must be positive")
	ErrInvalidLimit = errors.New("limit and offset cannot be negative")
	ErrInvalidDeal  = errors.New("invalid deal")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

func validateOptionalID(id *int64, paramName string) error {
	if id == nil {
		return nil
	}
	return validateID(*id, paramName)
}

func validatePaging(limit, offset int) error {
	if limit < 0 || offset < 0 {
		return fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidLimit, limit, offset)
	}
	return nil
}

func validatePatchString(s *string, paramName string) error {
	if s == nil {
		return nil
	}
	return validateString(*s, paramName)
}

func validateAmount(amount *float64) error {
	if amount == nil {
		return nil
	}
	if math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return fmt.Errorf("%w: amount must be a finite number", ErrInvalidDeal)
	}
	return nil
}

func validateClient(client *model.Client) error {
	if client == nil {
		return fmt.Errorf("%w: client", ErrNilParameter)
	}
	return validateString(client.Name, "name")
}

func validateDeal(deal *model.Deal) error {
	if deal == nil {
		return fmt.Errorf("%w: deal", ErrNilParameter)
	}
	if err := validateString(deal.Title, "title"); err != nil {
		return err
	}
	if err := validateOptionalID(deal.ClientID, "client_id"); err != nil {
		return err
	}
	return validateAmount(deal.Amount)
}

func validateTask(task *model.Task) error {
	if task == nil {
		return fmt.Errorf("%w: task", ErrNilParameter)
	}
	if err := validateString(task.Title, "title"); err != nil {
		return err
	}
	if err := validateOptionalID(task.ClientID, "client_id"); err != nil {
		return err
	}
	return validateOptionalID(task.DealID, "deal_id")
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, common.ErrNotFound)
}
