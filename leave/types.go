/*
Package leave implements the leave request lifecycle and calendar conflict
engine for the HR portal.

PURPOSE:
  This package contains the domain rules for absence management: how a leave
  request is typed, dated, validated against configurable duration policies,
  checked for scheduling conflicts, and moved through an approval state
  machine with balance accounting.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveType: A configurable absence category with a duration policy
  - LeaveRequest: One employee's absence interval with an approval status
  - Balance: Per employee, per type accounting of allotted vs consumed days
  - Actor: The authenticated caller, as seen by authorization checks

DESIGN PRINCIPLES:
  1. Validation at the boundary: LeaveType is validated once at the catalog;
     everything downstream switches on the closed DurationUnit enum.
  2. Precision: Balances use decimal.Decimal, never floats.
  3. Immutable decisions: Once a request leaves pending, its dates and type
     are frozen. Corrections are delete-and-recreate.

SEE ALSO:
  - catalog.go:  Leave type storage and validation
  - duration.go: End-date computation from duration policies
  - conflict.go: Overlap detection and aggregate-load warnings
  - ledger.go:   Balance reservation and release
  - engine.go:   Request creation, decision, deletion
  - calendar.go: Month-scoped projection of leave intervals
*/
package leave

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEAVE TYPE - Configurable absence category
// =============================================================================

// DurationUnit is the closed set of duration policy units.
type DurationUnit string

const (
	UnitDays   DurationUnit = "days"
	UnitWeeks  DurationUnit = "weeks"
	UnitMonths DurationUnit = "months"
)

// TypePublic is the organization-holiday type. Requests created through the
// "for all employees" fan-out are forced to this type, and it is the one
// shipped type that skips the approval queue.
const TypePublic = "public"

// LeaveType is a named absence category with its own duration and balance
// policy. Code is immutable once referenced by a request; historical requests
// keep their stored dates even if the duration policy changes later.
type LeaveType struct {
	Code             string
	Name             string
	DurationValue    int
	DurationUnit     DurationUnit
	DefaultBalance   int // days allotted per employee when no ledger row exists
	RequiresApproval bool
	Active           bool // inactive types are not selectable for new requests
	Color            string
}

var codeSlug = regexp.MustCompile(`^[a-z0-9_]+$`)

// Validate checks the catalog-boundary invariants.
func (t LeaveType) Validate() error {
	if !codeSlug.MatchString(t.Code) {
		return &ValidationError{Field: "code", Message: fmt.Sprintf("code %q must match [a-z0-9_]+", t.Code)}
	}
	if t.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if t.DurationValue < 1 {
		return &ValidationError{Field: "duration_value", Message: "duration value must be at least 1"}
	}
	switch t.DurationUnit {
	case UnitDays, UnitWeeks, UnitMonths:
	default:
		return &ValidationError{Field: "duration_unit", Message: fmt.Sprintf("unknown duration unit %q", t.DurationUnit)}
	}
	if t.DefaultBalance < 0 {
		return &ValidationError{Field: "default_balance", Message: "default balance cannot be negative"}
	}
	return nil
}

// =============================================================================
// LEAVE REQUEST - One employee's absence interval
// =============================================================================

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// LeaveRequest is an absence interval moving through the approval state
// machine. Approved and rejected are terminal; deletion is a separate
// destructive operation, not a status.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	TypeCode   string // references LeaveType.Code at creation time
	Start      Date
	End        Date // inclusive; End >= Start
	Reason     string
	Status     RequestStatus

	// AutoCalculatedEnd is true while End came from the duration calculator
	// and was not manually overridden.
	AutoCalculatedEnd bool

	// BalanceApplied is set when approval actually reserved balance, so that
	// deletion releases exactly what was taken. Fan-out holiday requests and
	// no-approval types never reserve.
	BalanceApplied bool

	CreatedAt time.Time
	DecidedAt *time.Time
	DecidedBy *string
}

// WorkingDays is the inclusive calendar-day count of the interval. Weekends
// are counted; the balance policy deducts every calendar day in range.
func (r *LeaveRequest) WorkingDays() int {
	return DaysInclusive(r.Start, r.End)
}

// Covers reports whether the request's interval includes the given day.
func (r *LeaveRequest) Covers(day Date) bool {
	return r.Start.BeforeOrEqual(day) && day.BeforeOrEqual(r.End)
}

// Intersects reports whether the request shares at least one day with
// [start, end].
func (r *LeaveRequest) Intersects(start, end Date) bool {
	return RangesIntersect(r.Start, r.End, start, end)
}

// =============================================================================
// EMPLOYEE - Minimal directory record (directory management is external)
// =============================================================================

type Employee struct {
	ID     string
	Name   string
	Email  string
	Active bool
}

// =============================================================================
// BALANCE - Per employee, per type ledger row
// =============================================================================

// Balance is one ledger row. Rows are materialized lazily: until an employee's
// first reservation for a type, the allotment is the type's DefaultBalance.
type Balance struct {
	EmployeeID string
	TypeCode   string
	Allotted   decimal.Decimal
	Consumed   decimal.Decimal
}

// Available returns allotted minus consumed.
func (b Balance) Available() decimal.Decimal {
	return b.Allotted.Sub(b.Consumed)
}

// =============================================================================
// ACTOR - Caller identity as supplied by the external auth subsystem
// =============================================================================

// Actor carries the authorization flags the engine needs. Authentication
// itself is owned by the surrounding application.
type Actor struct {
	EmployeeID string
	Admin      bool
	CanEdit    bool // secretary/editor role: may decide requests
}
