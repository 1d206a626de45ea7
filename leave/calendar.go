/*
calendar.go - Month-scoped projection of leave intervals

PURPOSE:
  Produces the day-indexed month view the calendar grid renders. A pure
  filter over the request store: no mutation, safe to call concurrently and
  repeatedly, identical results while nothing writes in between.

INCLUSION RULE:
  A request belongs to a month if its interval intersects any day of it.
  Requests that started in a prior month or end in a following one appear in
  full (partial overlap is included, not truncated).
*/
package leave

import (
	"context"
	"sort"
	"time"
)

// Scope selects whose requests a projection covers.
type Scope struct {
	all         bool
	employeeIDs map[string]struct{}
}

// ScopeAll is the admin view: every employee.
func ScopeAll() Scope { return Scope{all: true} }

// ScopeEmployees restricts the view to a specific employee set.
func ScopeEmployees(ids ...string) Scope {
	s := Scope{employeeIDs: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.employeeIDs[id] = struct{}{}
	}
	return s
}

func (s Scope) includes(employeeID string) bool {
	if s.all {
		return true
	}
	_, ok := s.employeeIDs[employeeID]
	return ok
}

// CalendarProjector is the read-side month view over the request store.
type CalendarProjector struct {
	store Store
}

func NewCalendarProjector(store Store) *CalendarProjector {
	return &CalendarProjector{store: store}
}

// ForMonth returns every request whose interval intersects the given month,
// filtered to the scope, sorted by start date then ID for stable rendering.
func (cp *CalendarProjector) ForMonth(ctx context.Context, year int, month time.Month, scope Scope) ([]LeaveRequest, error) {
	first, last := MonthRange(year, month)
	requests, err := cp.store.ListRequests(ctx, RequestFilter{From: &first, To: &last})
	if err != nil {
		return nil, err
	}

	out := requests[:0]
	for _, r := range requests {
		if scope.includes(r.EmployeeID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
