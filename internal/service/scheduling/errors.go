package scheduling

import (
	"fmt"

	"github.com/google/uuid"

	"clinicbook/backend/internal/store"
)

// ValidationError is the BadRequest class: structurally invalid input that
// no amount of retrying will fix.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func validationError(msg string) error {
	return NewValidationError(msg)
}

// ConflictError is a business-rule violation carrying a caller-facing
// message. It matches store.ErrConflict under errors.Is so callers can
// treat scheduler-detected and store-detected conflicts uniformly.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string {
	return e.msg
}

func (e *ConflictError) Is(target error) bool {
	return target == store.ErrConflict
}

// NewConflictError builds a ConflictError with the given message.
func NewConflictError(msg string) *ConflictError {
	return &ConflictError{msg: msg}
}

func conflictError(msg string) error {
	return NewConflictError(msg)
}

// NotFoundError names the missing resource. Matches store.ErrNotFound
// under errors.Is.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == store.ErrNotFound
}

// NewNotFoundError builds a NotFoundError for the named resource.
func NewNotFoundError(resource string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func notFoundError(resource string, id uuid.UUID) error {
	return NewNotFoundError(resource, id)
}
