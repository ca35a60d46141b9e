package domain

import (
	"errors"
	"fmt"
)

// ValidationError indicates the caller supplied invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// InvalidRangeError indicates a date range whose check-out is not after its check-in.
type InvalidRangeError struct {
	Message string
}

func (e *InvalidRangeError) Error() string { return e.Message }

// NewInvalidRangeError creates a new InvalidRangeError.
func NewInvalidRangeError(message string) *InvalidRangeError {
	return &InvalidRangeError{Message: message}
}

// CapacityExceededError indicates a guest count above the listing's maximum.
type CapacityExceededError struct {
	Requested int
	Max       int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("guest count %d exceeds listing capacity of %d", e.Requested, e.Max)
}

// NewCapacityExceededError creates a new CapacityExceededError.
func NewCapacityExceededError(requested, max int) *CapacityExceededError {
	return &CapacityExceededError{Requested: requested, Max: max}
}

// DateConflictError indicates the requested dates overlap an active booking.
type DateConflictError struct {
	Message string
}

func (e *DateConflictError) Error() string { return e.Message }

// NewDateConflictError creates a new DateConflictError.
func NewDateConflictError(message string) *DateConflictError {
	return &DateConflictError{Message: message}
}

// InvalidStateError indicates an illegal booking status transition.
type InvalidStateError struct {
	From string
	To   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(from, to string) *InvalidStateError {
	return &InvalidStateError{From: from, To: to}
}

// ForbiddenError indicates the actor is not allowed to perform the operation.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NewForbiddenError creates a new ForbiddenError.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// UnauthorizedError indicates a missing or unverifiable identity.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// NotFoundError indicates an entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError indicates a lost race against a concurrent writer. Callers
// may retry the operation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// IsRetryable reports whether the error represents a transient concurrency
// failure rather than a caller problem.
func IsRetryable(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
