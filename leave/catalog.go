/*
catalog.go - Configurable leave type catalog

PURPOSE:
  Holds the set of leave types an administrator configures: duration policy,
  default balance, approval requirement, color tag. Pure data plus lookup.

INVARIANTS:
  - Codes are slugs ([a-z0-9_]+) and immutable once referenced by a request.
  - Duration values are at least 1.
  - Types are soft-deactivated, never deleted: inactive types stop being
    selectable for new requests but stay valid on historical records.
  - Editing a type's duration policy never rewrites stored request dates;
    only future end-date calculations see the change.
*/
package leave

import "context"

// Catalog looks up and maintains leave types.
type Catalog struct {
	store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// Get returns the type for a code, or UnknownLeaveTypeError.
func (c *Catalog) Get(ctx context.Context, code string) (*LeaveType, error) {
	t, err := c.store.GetLeaveType(ctx, code)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &UnknownLeaveTypeError{Code: code}
	}
	return t, nil
}

// List returns all types, or only the active ones.
func (c *Catalog) List(ctx context.Context, activeOnly bool) ([]LeaveType, error) {
	return c.store.ListLeaveTypes(ctx, activeOnly)
}

// Upsert creates or replaces the type stored under t.Code after validating
// it. Existing requests referencing the code are not retroactively altered.
func (c *Catalog) Upsert(ctx context.Context, t LeaveType) (*LeaveType, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := c.store.SaveLeaveType(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}
