/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place. The API layer maps these to HTTP status
  codes with errors.Is/As; nothing else should inspect error strings.

ERROR CATEGORIES:
  1. Validation errors - rejected before any write
  2. Not-found / ownership errors - bad ids, wrong user
  3. Synchronization failures - the mirrored ledger write failed after the
     source document write succeeded; the source document is authoritative,
     so these are reported, never rolled back.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotOwner is returned when acting on a record owned by another user.
	ErrNotOwner = errors.New("not authorized for this record")

	// ErrValidation is the root of all validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateInvoiceNumber is returned when a manually supplied invoice
	// number collides with an existing one.
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")

	// ErrSyncFailed is the root of all mirrored-write failures.
	ErrSyncFailed = errors.New("ledger synchronization failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a field-level validation error.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SyncError records a mirrored-write failure. The source document write has
// already committed when this is raised; callers surface it for operator
// visibility and carry on.
type SyncError struct {
	Source SourceType
	Ref    string
	Op     string // "create", "update", "delete"
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("ledger sync %s failed for %s %s: %v", e.Op, e.Source, e.Ref, e.Err)
}

func (e *SyncError) Unwrap() error { return ErrSyncFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateInvoiceNumber)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
