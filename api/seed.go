/*
seed.go - Default catalog and demo data

PURPOSE:
  Loads the portal's default leave type catalog and, optionally, a demo
  employee set. Used by `server -seed` on first run and by handler tests
  that need a populated store.

CATALOG:
  The durations and allotments mirror the portal's configuration: annual
  leave is the 30-day workhorse, maternity is 14 weeks, public holidays
  carry no personal balance and skip the approval queue.
*/
package api

import (
	"context"
	"fmt"

	"github.com/okapihr/leave-engine/leave"
)

// DefaultLeaveTypes is the shipped catalog.
func DefaultLeaveTypes() []leave.LeaveType {
	return []leave.LeaveType{
		{Code: "annual", Name: "Annual leave", DurationValue: 30, DurationUnit: leave.UnitDays, DefaultBalance: 30, RequiresApproval: true, Active: true, Color: "blue"},
		{Code: "sick", Name: "Sick leave", DurationValue: 15, DurationUnit: leave.UnitDays, DefaultBalance: 15, RequiresApproval: true, Active: true, Color: "red"},
		{Code: "maternity", Name: "Maternity leave", DurationValue: 14, DurationUnit: leave.UnitWeeks, DefaultBalance: 98, RequiresApproval: true, Active: true, Color: "pink"},
		{Code: "exceptional", Name: "Exceptional authorization", DurationValue: 3, DurationUnit: leave.UnitDays, DefaultBalance: 3, RequiresApproval: true, Active: true, Color: "orange"},
		{Code: leave.TypePublic, Name: "Public holiday", DurationValue: 1, DurationUnit: leave.UnitDays, DefaultBalance: 0, RequiresApproval: false, Active: true, Color: "green"},
	}
}

// SeedCatalog writes the default leave types, validating through the
// catalog so a broken seed fails loudly.
func SeedCatalog(ctx context.Context, store leave.Store) error {
	catalog := leave.NewCatalog(store)
	for _, t := range DefaultLeaveTypes() {
		if _, err := catalog.Upsert(ctx, t); err != nil {
			return fmt.Errorf("seed leave type %s: %w", t.Code, err)
		}
	}
	return nil
}

// SeedDemoEmployees writes a small directory for local development.
func SeedDemoEmployees(ctx context.Context, store leave.Store) error {
	demo := []leave.Employee{
		{ID: "emp-001", Name: "Amina Kalenga", Email: "amina@example.com", Active: true},
		{ID: "emp-002", Name: "Jean Mbuyi", Email: "jean@example.com", Active: true},
		{ID: "emp-003", Name: "Grace Ilunga", Email: "grace@example.com", Active: true},
		{ID: "emp-004", Name: "Patrick Tshisekedi", Email: "patrick@example.com", Active: false},
	}
	for _, e := range demo {
		if err := store.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	return nil
}
