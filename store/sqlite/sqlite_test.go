/*
sqlite_test.go - SQLite store tests

Every test runs against an in-memory database, exercising the same schema
and queries production uses.
*/
package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapihr/leave-engine/leave"
)

func newTestDB(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustDate(t *testing.T, v string) leave.Date {
	t.Helper()
	d, err := leave.ParseDate(v)
	require.NoError(t, err)
	return d
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestSQLite_LeaveTypeRoundTrip(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	in := leave.LeaveType{
		Code:             "maternity",
		Name:             "Maternity leave",
		DurationValue:    14,
		DurationUnit:     leave.UnitWeeks,
		DefaultBalance:   98,
		RequiresApproval: true,
		Active:           true,
		Color:            "pink",
	}
	require.NoError(t, s.SaveLeaveType(ctx, in))

	out, err := s.GetLeaveType(ctx, "maternity")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)

	// Missing codes come back nil, nil.
	missing, err := s.GetLeaveType(ctx, "gardening")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_LeaveTypeUpsert(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	in := leave.LeaveType{Code: "annual", Name: "Annual", DurationValue: 30, DurationUnit: leave.UnitDays, DefaultBalance: 30, Active: true}
	require.NoError(t, s.SaveLeaveType(ctx, in))

	in.DefaultBalance = 32
	in.Active = false
	require.NoError(t, s.SaveLeaveType(ctx, in))

	out, err := s.GetLeaveType(ctx, "annual")
	require.NoError(t, err)
	assert.Equal(t, 32, out.DefaultBalance)
	assert.False(t, out.Active)

	active, err := s.ListLeaveTypes(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSQLite_EmployeeRoundTrip(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "e1", Name: "Amina", Email: "amina@example.com", Active: true}))
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "e2", Name: "Patrick", Active: false}))

	out, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Amina", out.Name)

	active, err := s.ListEmployees(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "e1", active[0].ID)

	all, err := s.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_RequestRoundTripWithDecision(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	decidedAt := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	decidedBy := "admin-1"
	in := leave.LeaveRequest{
		ID:                "r1",
		EmployeeID:        "e1",
		TypeCode:          "annual",
		Start:             mustDate(t, "2025-06-10"),
		End:               mustDate(t, "2025-06-14"),
		Reason:            "vacation",
		Status:            leave.StatusApproved,
		AutoCalculatedEnd: true,
		BalanceApplied:    true,
		CreatedAt:         time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		DecidedAt:         &decidedAt,
		DecidedBy:         &decidedBy,
	}
	require.NoError(t, s.SaveRequest(ctx, in))

	out, err := s.GetRequest(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "2025-06-10", out.Start.String())
	assert.Equal(t, "2025-06-14", out.End.String())
	assert.Equal(t, leave.StatusApproved, out.Status)
	assert.True(t, out.AutoCalculatedEnd)
	assert.True(t, out.BalanceApplied)
	require.NotNil(t, out.DecidedAt)
	assert.True(t, out.DecidedAt.Equal(decidedAt))
	require.NotNil(t, out.DecidedBy)
	assert.Equal(t, "admin-1", *out.DecidedBy)
}

func TestSQLite_RequestPendingHasNullDecision(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, leave.LeaveRequest{
		ID: "r1", EmployeeID: "e1", TypeCode: "annual",
		Start: mustDate(t, "2025-06-10"), End: mustDate(t, "2025-06-14"),
		Reason: "vacation", Status: leave.StatusPending,
		CreatedAt: time.Now().UTC(),
	}))

	out, err := s.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, out.DecidedAt)
	assert.Nil(t, out.DecidedBy)
}

func TestSQLite_DeleteRequest(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, leave.LeaveRequest{
		ID: "r1", EmployeeID: "e1", TypeCode: "annual",
		Start: mustDate(t, "2025-06-10"), End: mustDate(t, "2025-06-14"),
		Reason: "vacation", Status: leave.StatusPending, CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.DeleteRequest(ctx, "r1"))

	out, err := s.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSQLite_BalanceRoundTrip(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	in := leave.Balance{
		EmployeeID: "e1",
		TypeCode:   "annual",
		Allotted:   decimal.NewFromInt(30),
		Consumed:   decimal.RequireFromString("7.5"),
	}
	require.NoError(t, s.SaveBalance(ctx, in))

	out, err := s.GetBalance(ctx, "e1", "annual")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Allotted.Equal(decimal.NewFromInt(30)))
	assert.True(t, out.Consumed.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, out.Available().Equal(decimal.RequireFromString("22.5")))

	missing, err := s.GetBalance(ctx, "e1", "sick")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// =============================================================================
// FILTERING
// =============================================================================

func TestSQLite_ListRequestsIntervalIntersection(t *testing.T) {
	// The SQL range predicate must match the in-memory Matches() semantics:
	// inclusive on both ends.
	s := newTestDB(t)
	ctx := context.Background()

	seed := []struct {
		id, start, end string
	}{
		{"before", "2025-05-01", "2025-05-31"},
		{"touches-start", "2025-05-20", "2025-06-01"},
		{"inside", "2025-06-10", "2025-06-12"},
		{"touches-end", "2025-06-30", "2025-07-05"},
		{"after", "2025-07-01", "2025-07-10"},
	}
	for _, r := range seed {
		require.NoError(t, s.SaveRequest(ctx, leave.LeaveRequest{
			ID: r.id, EmployeeID: "e1", TypeCode: "annual",
			Start: mustDate(t, r.start), End: mustDate(t, r.end),
			Reason: "seeded", Status: leave.StatusApproved, CreatedAt: time.Now().UTC(),
		}))
	}

	from := mustDate(t, "2025-06-01")
	to := mustDate(t, "2025-06-30")
	out, err := s.ListRequests(ctx, leave.RequestFilter{From: &from, To: &to})
	require.NoError(t, err)

	ids := make([]string, len(out))
	for i, r := range out {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"touches-start", "inside", "touches-end"}, ids)
}

func TestSQLite_ListRequestsByEmployeeStatusAndExclusion(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	save := func(id, emp string, status leave.RequestStatus) {
		require.NoError(t, s.SaveRequest(ctx, leave.LeaveRequest{
			ID: id, EmployeeID: emp, TypeCode: "annual",
			Start: mustDate(t, "2025-06-10"), End: mustDate(t, "2025-06-12"),
			Reason: "seeded", Status: status, CreatedAt: time.Now().UTC(),
		}))
	}
	save("r1", "e1", leave.StatusPending)
	save("r2", "e1", leave.StatusRejected)
	save("r3", "e2", leave.StatusApproved)

	out, err := s.ListRequests(ctx, leave.RequestFilter{
		EmployeeID: "e1",
		Statuses:   []leave.RequestStatus{leave.StatusPending, leave.StatusApproved},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].ID)

	out, err = s.ListRequests(ctx, leave.RequestFilter{EmployeeID: "e1", ExcludeID: "r1"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].ID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTxCommits(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx leave.Store) error {
		if err := tx.SaveEmployee(ctx, leave.Employee{ID: "e1", Name: "Amina", Active: true}); err != nil {
			return err
		}
		return tx.SaveBalance(ctx, leave.Balance{
			EmployeeID: "e1", TypeCode: "annual",
			Allotted: decimal.NewFromInt(30), Consumed: decimal.NewFromInt(5),
		})
	})
	require.NoError(t, err)

	b, err := s.GetBalance(ctx, "e1", "annual")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.Consumed.Equal(decimal.NewFromInt(5)))
}

func TestSQLite_WithTxRollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that writes and then fails
	// WHEN: WithTx returns
	// THEN: None of the writes are visible

	s := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx leave.Store) error {
		if err := tx.SaveEmployee(ctx, leave.Employee{ID: "e1", Name: "Amina", Active: true}); err != nil {
			return err
		}
		if err := tx.SaveRequest(ctx, leave.LeaveRequest{
			ID: "r1", EmployeeID: "e1", TypeCode: "annual",
			Start: mustDate(t, "2025-06-10"), End: mustDate(t, "2025-06-12"),
			Reason: "doomed", Status: leave.StatusPending, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	emp, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, emp)

	req, err := s.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestSQLite_EngineDecideAgainstRealDatabase(t *testing.T) {
	// The transactional decide() path end to end: approval reserves balance
	// and a second decision conflicts.

	s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.SaveLeaveType(ctx, leave.LeaveType{
		Code: "annual", Name: "Annual", DurationValue: 30, DurationUnit: leave.UnitDays,
		DefaultBalance: 30, RequiresApproval: true, Active: true,
	}))
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "e1", Name: "Amina", Active: true}))

	engine := leave.NewEngine(s)
	end := mustDate(t, "2025-06-14")
	result, err := engine.Create(ctx, leave.CreateInput{
		EmployeeID: "e1", TypeCode: "annual",
		Start: mustDate(t, "2025-06-10"), End: &end, Reason: "vacation",
	}, leave.Actor{EmployeeID: "e1"})
	require.NoError(t, err)

	admin := leave.Actor{EmployeeID: "admin-1", Admin: true}
	decided, err := engine.Decide(ctx, result.Request.ID, leave.StatusApproved, admin)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, decided.Status)

	b, err := s.GetBalance(ctx, "e1", "annual")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.Consumed.Equal(decimal.NewFromInt(5)))

	_, err = engine.Decide(ctx, result.Request.ID, leave.StatusRejected, admin)
	assert.ErrorIs(t, err, leave.ErrConcurrentModification)
}
