package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned when a create or rename would collide
	// case-insensitively with an existing habit or goal.
	ErrDuplicateName = errors.New("name already exists")

	// ErrNotFound is returned when an update, archive, delete or completion
	// references a name that is not stored.
	ErrNotFound = errors.New("not found")

	// ErrNameRequired is returned when a name is empty after trimming.
	ErrNameRequired = errors.New("name required")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPoints is returned for negative habit or goal points.
	ErrInvalidPoints = errors.New("points must be zero or more")
)

// StoreError represents an error from a store or remote operation.
// It carries the operation, the table involved and, for remote calls,
// the HTTP status code and response body.
type StoreError struct {
	Operation  string // e.g., "AddHabit", "Fetch", "Update"
	Table      string // table id, e.g. "habits.csv"
	StatusCode int    // HTTP status code (0 if not an HTTP error)
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	prefix := e.Operation
	if e.Table != "" {
		prefix = fmt.Sprintf("%s %s", e.Operation, e.Table)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed with status %d: %s", prefix, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error wrapping
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a 404 Not Found
func (e *StoreError) IsNotFound() bool {
	return e.StatusCode == 404 || errors.Is(e.Err, ErrNotFound)
}

// IsUnauthorized returns true if the error is a 401 Unauthorized or 403 Forbidden
func (e *StoreError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsConflict returns true for 409 Conflict and 422 Unprocessable Entity,
// which is how revision mismatches are reported by the contents API.
func (e *StoreError) IsConflict() bool {
	return e.StatusCode == 409 || e.StatusCode == 422
}

// IsServerError returns true if the error is a 5xx server error
func (e *StoreError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewStoreError creates a new StoreError
func NewStoreError(operation string, statusCode int, message string) *StoreError {
	return &StoreError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// WithTable adds the table id to the error for context
func (e *StoreError) WithTable(table string) *StoreError {
	e.Table = table
	return e
}

// WithBody adds the response body to the error for debugging
func (e *StoreError) WithBody(body string) *StoreError {
	e.Body = body
	return e
}

// WithError wraps an underlying error
func (e *StoreError) WithError(err error) *StoreError {
	e.Err = err
	return e
}
