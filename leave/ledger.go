/*
ledger.go - Per-employee, per-type balance accounting

PURPOSE:
  Tracks allotted versus consumed days for each (employee, leave type) pair
  and enforces the one hard balance rule in the system: approval fails when
  the request's working days exceed what is available.

LAZY MATERIALIZATION:
  No ledger row exists until an employee's first reservation for a type.
  Until then the allotment is the type's DefaultBalance and consumption is
  zero. Available() works either way.

MUTATION DISCIPLINE:
  All mutation goes through Reserve and Release; balances are maintained
  incrementally as requests transition state, never recomputed from scratch
  as the source of truth. Release floors consumed at zero: under correct
  bookkeeping it never underflows, but it must not throw or go negative.

WORKING DAYS:
  The inclusive count of calendar days in the request's range. Weekends are
  NOT excluded; every calendar day counts. This mirrors the portal's
  historical behavior and is flagged as an open policy question rather than
  silently changed.
*/
package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceLedger exposes available balance and applies reservations.
type BalanceLedger struct {
	store   Store
	catalog *Catalog
}

func NewBalanceLedger(store Store, catalog *Catalog) *BalanceLedger {
	return &BalanceLedger{store: store, catalog: catalog}
}

// load returns the persisted row, or a lazily materialized one seeded from
// the type's default allotment.
func (bl *BalanceLedger) load(ctx context.Context, employeeID, typeCode string) (*Balance, error) {
	row, err := bl.store.GetBalance(ctx, employeeID, typeCode)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}
	t, err := bl.catalog.Get(ctx, typeCode)
	if err != nil {
		return nil, err
	}
	return &Balance{
		EmployeeID: employeeID,
		TypeCode:   typeCode,
		Allotted:   decimal.NewFromInt(int64(t.DefaultBalance)),
		Consumed:   decimal.Zero,
	}, nil
}

// Snapshot returns an immutable copy of the current balance row.
func (bl *BalanceLedger) Snapshot(ctx context.Context, employeeID, typeCode string) (Balance, error) {
	row, err := bl.load(ctx, employeeID, typeCode)
	if err != nil {
		return Balance{}, err
	}
	return *row, nil
}

// Available returns allotted minus consumed for the pair.
func (bl *BalanceLedger) Available(ctx context.Context, employeeID, typeCode string) (decimal.Decimal, error) {
	row, err := bl.load(ctx, employeeID, typeCode)
	if err != nil {
		return decimal.Zero, err
	}
	return row.Available(), nil
}

// Reserve consumes workingDays on approval. Fails with
// InsufficientBalanceError when workingDays exceeds the available balance;
// this is surfaced to the approver, never clamped.
func (bl *BalanceLedger) Reserve(ctx context.Context, employeeID, typeCode string, workingDays decimal.Decimal) error {
	row, err := bl.load(ctx, employeeID, typeCode)
	if err != nil {
		return err
	}
	if workingDays.GreaterThan(row.Available()) {
		return &InsufficientBalanceError{
			EmployeeID: employeeID,
			TypeCode:   typeCode,
			Available:  row.Available(),
			Requested:  workingDays,
		}
	}
	row.Consumed = row.Consumed.Add(workingDays)
	return bl.store.SaveBalance(ctx, *row)
}

// Release restores workingDays when a previously approved request is
// deleted. Consumed is floored at zero.
func (bl *BalanceLedger) Release(ctx context.Context, employeeID, typeCode string, workingDays decimal.Decimal) error {
	row, err := bl.load(ctx, employeeID, typeCode)
	if err != nil {
		return err
	}
	row.Consumed = row.Consumed.Sub(workingDays)
	if row.Consumed.IsNegative() {
		row.Consumed = decimal.Zero
	}
	return bl.store.SaveBalance(ctx, *row)
}
