/*
store.go - Persistence interface for leave records

PURPOSE:
  Defines the boundary between the domain logic and the database. The engine
  is agnostic to whether this is SQLite, PostgreSQL, or an in-memory map; it
  only requires read-after-write consistency within a single logical
  operation.

KEY INTERFACES:
  Store:   CRUD for leave types, employees, requests, and balance rows
  TxStore: Store plus WithTx for atomic check-and-reserve on approval

ATOMICITY:
  decide() must atomically re-check that a request is still pending, reserve
  balance, and persist the status change. Implementations back WithTx with a
  real database transaction (or a snapshot/rollback for the memory store).

IMPLEMENTATIONS:
  - store/sqlite:     Production SQLite
  - leave/store:      In-memory, for tests

SEE ALSO:
  - engine.go: The only writer of requests and balances
*/
package leave

import "context"

// =============================================================================
// REQUEST FILTER
// =============================================================================

// RequestFilter narrows ListRequests. Zero values mean "no constraint".
// When From and To are set, a request matches if its interval intersects
// [From, To] (inclusive on both sides), not only if it is contained.
type RequestFilter struct {
	EmployeeID string
	Statuses   []RequestStatus
	From       *Date
	To         *Date
	ExcludeID  string
}

func (f RequestFilter) matchesStatus(s RequestStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, want := range f.Statuses {
		if s == want {
			return true
		}
	}
	return false
}

// Matches reports whether a request passes the filter. Shared by store
// implementations so they agree on intersection semantics.
func (f RequestFilter) Matches(r *LeaveRequest) bool {
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.ExcludeID != "" && r.ID == f.ExcludeID {
		return false
	}
	if !f.matchesStatus(r.Status) {
		return false
	}
	if f.From != nil && f.To != nil && !r.Intersects(*f.From, *f.To) {
		return false
	}
	if f.From != nil && f.To == nil && r.End.Before(*f.From) {
		return false
	}
	if f.To != nil && f.From == nil && r.Start.After(*f.To) {
		return false
	}
	return true
}

// =============================================================================
// STORE - Persistence contract
// =============================================================================

// Store persists the four record kinds the engine owns. Get methods return
// (nil, nil) when the record does not exist; callers translate that into
// their own not-found errors.
type Store interface {
	// Leave types
	SaveLeaveType(ctx context.Context, t LeaveType) error
	GetLeaveType(ctx context.Context, code string) (*LeaveType, error)
	ListLeaveTypes(ctx context.Context, activeOnly bool) ([]LeaveType, error)

	// Employees
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)

	// Requests
	SaveRequest(ctx context.Context, r LeaveRequest) error
	GetRequest(ctx context.Context, id string) (*LeaveRequest, error)
	DeleteRequest(ctx context.Context, id string) error
	ListRequests(ctx context.Context, f RequestFilter) ([]LeaveRequest, error)

	// Balances
	GetBalance(ctx context.Context, employeeID, typeCode string) (*Balance, error)
	SaveBalance(ctx context.Context, b Balance) error
}

// TxStore wraps Store with transaction support.
//
// WithTx executes fn against a transactional view of the store. If fn returns
// an error the transaction is rolled back, otherwise committed. The engine
// uses this for decide() and delete(), which must not interleave with another
// decision on the same request.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
