// Package common holds the error values and logging helpers shared by every crm package.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a request the caller has to correct.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingConfig and ErrInvalidConfig come out of configuration validation.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDatabaseCorrupted means the database schema is not one this binary can use.
	ErrDatabaseCorrupted = errors.New("database corrupted")
)

// UserError carries a hint telling the person at the terminal what to do next.
type UserError struct {
	Err  error
	Hint string
}

func (e *UserError) Error() string {
	switch {
	case e.Err == nil:
		return e.Hint
	case e.Hint == "":
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (%s)", e.Err, e.Hint)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a hint.
func NewUserError(hint string, err error) error {
	return &UserError{Hint: hint, Err: err}
}
