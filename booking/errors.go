/*
errors.go - Centralized error types for the booking engine

PURPOSE:
  All error types in one place. Every error is returned synchronously from
  the operation that detected it; nothing here is retried automatically.

ERROR CATEGORIES:
  1. Persistence - store read/write failed (PersistenceError)
  2. Input       - malformed package, duplicate booking, illegal transition
  3. Lookup      - booking or settlement not found
  4. Concurrency - optimistic version check failed

USAGE:
  if errors.Is(err, booking.ErrDuplicateBooking) { ... }

  var pe *booking.PersistenceError
  if errors.As(err, &pe) { log.Println(pe.Op) }
*/
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPersistence is the category of every PersistenceError.
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedPackage is returned when a package lacks required fields.
	ErrMalformedPackage = errors.New("malformed travel package")

	// ErrDuplicateBooking is returned when a booking with the same id exists.
	ErrDuplicateBooking = errors.New("duplicate booking")

	// ErrBookingNotFound is returned when the target booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSettlementNotFound is returned when no settlement matches the
	// provider name or settlement id inside an existing booking.
	ErrSettlementNotFound = errors.New("settlement not found")

	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrentModification is returned when the stored collection
	// changed between read and write.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersistenceError wraps a failed store operation.
type PersistenceError struct {
	Op  string // "read", "write", "decode" or "encode"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("booking store %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the category and the cause, so errors.Is works for
// ErrPersistence and for whatever the store returned.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// MalformedPackageError lists the fields that failed validation.
type MalformedPackageError struct {
	Fields []string
}

func (e *MalformedPackageError) Error() string {
	return fmt.Sprintf("malformed travel package: invalid fields %s", strings.Join(e.Fields, ", "))
}

func (e *MalformedPackageError) Unwrap() error { return ErrMalformedPackage }

type DuplicateBookingError struct {
	ID string
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("booking %q already exists", e.ID)
}

func (e *DuplicateBookingError) Unwrap() error { return ErrDuplicateBooking }

// InvalidTransitionError describes a rejected status change.
type InvalidTransitionError struct {
	BookingID string
	From      string
	To        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %s: cannot move from %s to %s", e.BookingID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedPackage) ||
		errors.Is(err, ErrDuplicateBooking) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrSettlementNotFound)
}
