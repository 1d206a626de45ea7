/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error kinds in one place. Every failure the engine can surface is one
  of a small taxonomy, carried as a sentinel plus an optional structured
  wrapper with enough context for the caller to render a specific message.

ERROR CATEGORIES:
  1. Validation errors  - Malformed input, rejected before any persistence
  2. Domain errors      - Business rules (unknown type, insufficient balance)
  3. Authorization      - Forbidden state transitions
  4. Concurrency        - Optimistic re-check failures on decide()

None of these are retried internally; they represent bad input or a
legitimate business rule and must be corrected by the caller.

USAGE:
  if errors.Is(err, leave.ErrInsufficientBalance) {
      var ib *leave.InsufficientBalanceError
      errors.As(err, &ib)
      // render ib.Available / ib.Requested
  }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all malformed-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownLeaveType is returned when a type code does not resolve.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrInsufficientBalance is returned at approval time when the request's
	// working days exceed the available balance. Never raised at creation.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrForbidden is returned on authorization failure in decide/delete.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when the pending re-check inside
	// a decide transaction finds the request already decided.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending field / amounts
// =============================================================================

// ValidationError names the offending field so the UI can attach the message
// to the right input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnknownLeaveTypeError carries the unresolvable code.
type UnknownLeaveTypeError struct {
	Code string
}

func (e *UnknownLeaveTypeError) Error() string {
	return fmt.Sprintf("unknown leave type %q", e.Code)
}

func (e *UnknownLeaveTypeError) Unwrap() error { return ErrUnknownLeaveType }

// InsufficientBalanceError is surfaced to the approver, never silently
// clamped. The request stays pending.
type InsufficientBalanceError struct {
	EmployeeID string
	TypeCode   string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %s: available %s, requested %s",
		e.TypeCode, e.EmployeeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// ForbiddenError names the actor and the refused action.
type ForbiddenError struct {
	ActorID string
	Action  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %q may not %s", e.ActorID, e.Action)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or
// a business rule, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownLeaveType) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
