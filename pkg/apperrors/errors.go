// Package apperrors defines the error taxonomy shared by stores, services and
// HTTP handlers. Services wrap the sentinels below with context; the HTTP
// layer maps each sentinel to exactly one status code.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is returned when input is malformed or out of bounds
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a uniqueness constraint would be violated
	ErrDuplicate = errors.New("already exists")

	// ErrConflict is returned when a delete is blocked by a live reference
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated is returned for bad, missing or expired credentials
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the caller is authenticated but not permitted
	ErrForbidden = errors.New("access denied")
)

// IsNotFound checks if the error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate checks if the error is or wraps ErrDuplicate
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsConflict checks if the error is or wraps ErrConflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthenticated checks if the error is or wraps ErrUnauthenticated
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsForbidden checks if the error is or wraps ErrForbidden
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsValidation checks if the error is or wraps ErrValidation
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// NewNotFoundError creates a not found error for an entity id
func NewNotFoundError(entity string, id int64) error {
	return fmt.Errorf("%w: %s with id %d", ErrNotFound, entity, id)
}

// NewDuplicateError creates a duplicate error for a unique field value
func NewDuplicateError(entity, field, value string) error {
	return fmt.Errorf("%w: %s with %s '%s'", ErrDuplicate, entity, field, value)
}

// NewConflictError creates an error for a delete blocked by task references
func NewConflictError(entity string, id int64) error {
	return fmt.Errorf("%w: %s with id %d is associated with a task", ErrConflict, entity, id)
}

// NewForbiddenError creates an access denied error with a reason
func NewForbiddenError(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// ValidationError carries per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty validation error
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for a field. The first message per field wins.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns the error when fields failed and nil otherwise
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match a *ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
