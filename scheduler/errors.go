/*
errors.go - Centralized error types for the scheduler core

PURPOSE:
  All error types in one place. Callers branch on category with errors.Is /
  errors.As; the UI layer owns the user-facing wording.

ERROR CATEGORIES:
  1. Validation errors - malformed ids/dates, duplicate id or name
  2. Conflict errors   - cross-category overlap on a date
  3. Not-found errors  - unknown employee or role
  4. Persistence errors - I/O failure during load/save

SEE ALSO:
  - engine.go: produces ConflictError
  - directory.go: produces ValidationError / NotFoundError
  - store/file: wraps I/O failures in PersistenceError
*/
package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConflict is the category of all cross-store date conflicts.
	ErrConflict = errors.New("attendance conflict")

	// ErrNotFound is returned when a referenced employee or role is unknown.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the category of malformed or duplicate input.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence is the category of load/save failures.
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateConflict names one conflicting day inside a ConflictError.
type DateConflict struct {
	Date     Date
	Category Category
	Detail   string // human-readable, e.g. "Seminar: Go Conference"
}

// ConflictError reports that one or more dates in an assignment already carry
// a record in a different category. No mutation has occurred when it is
// returned: batch assignment is all-or-nothing.
type ConflictError struct {
	EmployeeID EmployeeID
	Requested  Category
	Conflicts  []DateConflict
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 1 {
		c := e.Conflicts[0]
		return fmt.Sprintf("cannot assign %s for %s on %s: already marked as %s",
			e.Requested.DisplayName(), e.EmployeeID, c.Date, c.Detail)
	}
	days := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		days[i] = fmt.Sprintf("%s (%s)", c.Date, c.Detail)
	}
	return fmt.Sprintf("cannot assign %s for %s: %d conflicting day(s): %s",
		e.Requested.DisplayName(), e.EmployeeID, len(e.Conflicts), strings.Join(days, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Kind string // "employee", "role"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError describes rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError wraps an I/O failure with the store it came from. Write
// failures always happen before the atomic rename, so the canonical file is
// left untouched.
type PersistenceError struct {
	Store string // e.g. "employees", "wfh_records"
	Op    string // "load" or "save"
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Store, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input
// rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound)
}
