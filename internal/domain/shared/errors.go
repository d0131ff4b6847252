// Package shared contains common domain types and errors that are used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "group"
	Op      string // Operation that failed, e.g., "Find", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound     = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentNameRequired = NewDomainError("student", "Validate", ErrEmptyValue, "first and last name are required")
	ErrStudentGroupMissing = NewDomainError("student", "Validate", ErrInvalidInput, "student must belong to a group")
)

// Group domain errors
var (
	ErrGroupNotFound     = NewDomainError("group", "Find", ErrNotFound, "group not found")
	ErrGroupNameRequired = NewDomainError("group", "Validate", ErrEmptyValue, "group name is required")
	ErrGroupExists       = NewDomainError("group", "Create", ErrAlreadyExists, "group already exists")
)

// StudentNotFound returns a not-found error that carries the requested identity.
func StudentNotFound(op string, id int64) *DomainError {
	return WrapError("student", op, ErrNotFound, fmt.Sprintf("student %d not found", id), ErrStudentNotFound)
}

// GroupNotFound returns a not-found error that carries the requested identity.
func GroupNotFound(op string, id int64) *DomainError {
	return WrapError("group", op, ErrNotFound, fmt.Sprintf("group %d not found", id), ErrGroupNotFound)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrEmptyValue)
}
