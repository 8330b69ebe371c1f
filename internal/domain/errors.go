package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval    = &InvalidRequestError{Reason: "start must be before end"}
	ErrPastStart          = &InvalidRequestError{Reason: "start must not be in the past"}
	ErrMissingEquipmentID = &InvalidRequestError{Reason: "equipment id is required"}
	ErrRentalTooLong      = &InvalidRequestError{Reason: "rental exceeds the maximum duration"}
	ErrInvalidTransition  = &InvalidRequestError{Reason: "booking status transition not allowed"}
)

// InvalidRequestError is a caller-correctable problem with the request. Never retried.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// NewInvalidRequest builds an ad-hoc InvalidRequestError.
func NewInvalidRequest(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// StoreError wraps an infrastructure failure (timeout, connection loss).
// Callers may retry with backoff; the services never retry it themselves.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Temporary marks store errors as retryable.
func (e *StoreError) Temporary() bool { return true }

// OverlapError is returned when a write would create an overlapping interval
// that the store or the block policy forbids.
type OverlapError struct {
	EquipmentID string
	Interval    Interval
	Detail      string
}

func (e *OverlapError) Error() string {
	msg := fmt.Sprintf("overlapping interval %s for equipment %s", e.Interval, e.EquipmentID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// SerializationConflictError is raised by the store when a concurrent booking
// insert lost a serializable transaction. Re-check availability and retry once.
type SerializationConflictError struct {
	Err error
}

func (e *SerializationConflictError) Error() string {
	return fmt.Sprintf("serialization conflict: %v", e.Err)
}

func (e *SerializationConflictError) Unwrap() error { return e.Err }

func IsInvalidRequest(err error) bool {
	var target *InvalidRequestError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsStoreError(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}

func IsOverlap(err error) bool {
	var target *OverlapError
	return errors.As(err, &target)
}

func IsSerializationConflict(err error) bool {
	var target *SerializationConflictError
	return errors.As(err, &target)
}
