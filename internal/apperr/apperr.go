// Package apperr defines the typed error taxonomy shared by all stores.
package apperr

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced row does not exist.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Resource, e.ID)
}

// ValidationError reports malformed input, rejected before any write.
type ValidationError struct {
	Resource string
	Msg      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Resource, e.Msg)
}

// ConflictError reports a state conflict, such as accepting a quest while
// another one is already active.
type ConflictError struct {
	Resource string
	ID       any
	Msg      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Resource, e.ID, e.Msg)
}

// NotFound builds a NotFoundError for the given resource and id.
func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Invalid builds a ValidationError for the given resource.
func Invalid(resource, format string, args ...any) error {
	return &ValidationError{Resource: resource, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a ConflictError for the given resource and id.
func Conflict(resource string, id any, format string, args ...any) error {
	return &ConflictError{Resource: resource, ID: id, Msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
