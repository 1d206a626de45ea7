/*
conflict.go - Overlap detection and aggregate-load warnings

PURPOSE:
  Answers "does this proposed interval collide with anything?" for two
  audiences:
  - Per employee: which of their existing non-rejected requests intersect a
    candidate range. Overlap is ADVISORY, never a hard error: an admin may
    legitimately need to split or replace a period, so the engine surfaces
    the list and lets the caller decide.
  - Organization-wide: how many distinct employees are already absent on a
    given day, with a warning once half the staff or more is out.

OVERLAP TEST:
  Inclusive on both sides: [Jan 1, Jan 5] and [Jan 5, Jan 10] overlap on the
  shared boundary day.
*/
package leave

import (
	"context"
	"time"
)

// ConflictDetector runs read-only checks over existing leave records.
type ConflictDetector struct {
	store Store
}

func NewConflictDetector(store Store) *ConflictDetector {
	return &ConflictDetector{store: store}
}

// CheckOverlap returns the employee's existing pending or approved requests
// whose interval intersects [start, end]. excludeID skips one request, so an
// edit-in-place flow does not report the request against itself.
func (cd *ConflictDetector) CheckOverlap(ctx context.Context, employeeID string, start, end Date, excludeID string) ([]LeaveRequest, error) {
	return cd.store.ListRequests(ctx, RequestFilter{
		EmployeeID: employeeID,
		Statuses:   []RequestStatus{StatusPending, StatusApproved},
		From:       &start,
		To:         &end,
		ExcludeID:  excludeID,
	})
}

// AggregateLoad describes organization-wide absence on one day.
type AggregateLoad struct {
	Date  Date
	Count int     // distinct employees with a pending/approved interval covering the day
	Total int     // active employees
	Ratio float64 // Count / Total, 0 when there are no employees
	Warn  bool    // Count >= ceil(Total / 2)
}

// CheckAggregateLoad counts distinct employees absent on the given day.
// Informational only; it never blocks submission.
func (cd *ConflictDetector) CheckAggregateLoad(ctx context.Context, day Date) (*AggregateLoad, error) {
	employees, err := cd.store.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}

	requests, err := cd.store.ListRequests(ctx, RequestFilter{
		Statuses: []RequestStatus{StatusPending, StatusApproved},
		From:     &day,
		To:       &day,
	})
	if err != nil {
		return nil, err
	}

	absent := make(map[string]struct{})
	for i := range requests {
		absent[requests[i].EmployeeID] = struct{}{}
	}

	load := &AggregateLoad{
		Date:  day,
		Count: len(absent),
		Total: len(employees),
	}
	if load.Total > 0 {
		load.Ratio = float64(load.Count) / float64(load.Total)
		load.Warn = load.Count >= (load.Total+1)/2 // ceil(total/2)
	}
	return load, nil
}

// IsRestDay reports whether the date falls on the organization's weekly rest
// day (Sunday). Advisory note for the UI, not enforced anywhere.
func (cd *ConflictDetector) IsRestDay(day Date) bool {
	return day.Weekday() == time.Sunday
}
