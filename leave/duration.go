/*
duration.go - End-date computation from duration policies

PURPOSE:
  Given a leave type and a start date, proposes the end date deterministically
  from the type's duration policy. The result is advisory: the UI calls this
  interactively as the user changes type or start date, and the user may
  override the proposed date (tracked via LeaveRequest.AutoCalculatedEnd).

SEMANTICS (all ranges inclusive):
  days:   end = start + (value - 1)        a 1-day type starts and ends same day
  weeks:  end = start + (value*7 - 1)
  months: end = start + value calendar months, minus 1 day
          "3 months starting March 1" ends May 31. Calendar-month arithmetic,
          not a fixed 90/91-day count, so leap years and variable month
          lengths come out right.
*/
package leave

import (
	"context"
	"fmt"
)

// DurationCalculator computes proposed end dates from catalog policies.
type DurationCalculator struct {
	catalog *Catalog
}

func NewDurationCalculator(catalog *Catalog) *DurationCalculator {
	return &DurationCalculator{catalog: catalog}
}

// ComputeEndDate returns the policy-derived end date for a leave of the given
// type starting at start. Returns UnknownLeaveTypeError if the code does not
// resolve.
func (dc *DurationCalculator) ComputeEndDate(ctx context.Context, typeCode string, start Date) (Date, error) {
	t, err := dc.catalog.Get(ctx, typeCode)
	if err != nil {
		return Date{}, err
	}
	return EndDateFor(*t, start)
}

// EndDateFor applies a type's duration policy to a start date. Split out so
// callers holding a LeaveType (for example the engine, mid-transaction) can
// compute without a second catalog lookup.
func EndDateFor(t LeaveType, start Date) (Date, error) {
	switch t.DurationUnit {
	case UnitDays:
		return start.AddDays(t.DurationValue - 1), nil
	case UnitWeeks:
		return start.AddDays(t.DurationValue*7 - 1), nil
	case UnitMonths:
		return start.AddMonths(t.DurationValue).AddDays(-1), nil
	default:
		// Unreachable for catalog-validated types.
		return Date{}, fmt.Errorf("leave type %q: unknown duration unit %q", t.Code, t.DurationUnit)
	}
}
