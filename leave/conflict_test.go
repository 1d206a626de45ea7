/*
conflict_test.go - Overlap detection and aggregate-load tests
*/
package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapihr/leave-engine/leave"
	memstore "github.com/okapihr/leave-engine/leave/store"
)

func saveRequest(t *testing.T, s leave.Store, id, employeeID, typeCode string, start, end leave.Date, status leave.RequestStatus) {
	t.Helper()
	require.NoError(t, s.SaveRequest(context.Background(), leave.LeaveRequest{
		ID:         id,
		EmployeeID: employeeID,
		TypeCode:   typeCode,
		Start:      start,
		End:        end,
		Reason:     "seeded",
		Status:     status,
	}))
}

// =============================================================================
// OVERLAP
// =============================================================================

func TestConflict_CheckOverlap_SharedBoundaryDay(t *testing.T) {
	// GIVEN: Alice has an approved leave Jan 1-5
	// WHEN: A candidate range Jan 5-10 is checked
	// THEN: The existing request is reported (inclusive boundaries touch)

	s := newTestStore(t)
	detector := leave.NewConflictDetector(s)
	saveRequest(t, s, "r1", "emp-alice", "annual", date("2025-01-01"), date("2025-01-05"), leave.StatusApproved)

	overlaps, err := detector.CheckOverlap(context.Background(), "emp-alice", date("2025-01-05"), date("2025-01-10"), "")
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "r1", overlaps[0].ID)
}

func TestConflict_CheckOverlap_DisjointAndRejectedIgnored(t *testing.T) {
	s := newTestStore(t)
	detector := leave.NewConflictDetector(s)
	saveRequest(t, s, "r1", "emp-alice", "annual", date("2025-01-01"), date("2025-01-05"), leave.StatusApproved)
	saveRequest(t, s, "r2", "emp-alice", "sick", date("2025-01-07"), date("2025-01-09"), leave.StatusRejected)

	overlaps, err := detector.CheckOverlap(context.Background(), "emp-alice", date("2025-01-06"), date("2025-01-10"), "")
	require.NoError(t, err)
	assert.Empty(t, overlaps, "rejected requests never conflict")
}

func TestConflict_CheckOverlap_OtherEmployeesInvisible(t *testing.T) {
	s := newTestStore(t)
	detector := leave.NewConflictDetector(s)
	saveRequest(t, s, "r1", "emp-bob", "annual", date("2025-01-01"), date("2025-01-10"), leave.StatusApproved)

	overlaps, err := detector.CheckOverlap(context.Background(), "emp-alice", date("2025-01-01"), date("2025-01-10"), "")
	require.NoError(t, err)
	assert.Empty(t, overlaps)
}

func TestConflict_CheckOverlap_ExcludesSelf(t *testing.T) {
	// Edit-in-place must not report the request against its own old interval.
	s := newTestStore(t)
	detector := leave.NewConflictDetector(s)
	saveRequest(t, s, "r1", "emp-alice", "annual", date("2025-01-01"), date("2025-01-10"), leave.StatusPending)

	overlaps, err := detector.CheckOverlap(context.Background(), "emp-alice", date("2025-01-05"), date("2025-01-15"), "r1")
	require.NoError(t, err)
	assert.Empty(t, overlaps)
}

// =============================================================================
// AGGREGATE LOAD
// =============================================================================

func TestConflict_AggregateLoad_WarnsAtHalfStaff(t *testing.T) {
	// GIVEN: 4 active employees, 2 of them absent on the same day
	// WHEN: The day's load is checked
	// THEN: count=2, total=4, warn (2 >= ceil(4/2))

	s := memstore.NewMemory()
	seedCatalog(t, s)
	ids := seedEmployees(t, s, 4)
	detector := leave.NewConflictDetector(s)
	day := date("2025-07-15")

	saveRequest(t, s, "r1", ids[0], "annual", date("2025-07-10"), date("2025-07-20"), leave.StatusApproved)
	saveRequest(t, s, "r2", ids[1], "sick", day, day, leave.StatusPending)

	load, err := detector.CheckAggregateLoad(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, load.Count)
	assert.Equal(t, 4, load.Total)
	assert.InDelta(t, 0.5, load.Ratio, 1e-9)
	assert.True(t, load.Warn)
}

func TestConflict_AggregateLoad_BelowThreshold(t *testing.T) {
	s := memstore.NewMemory()
	seedCatalog(t, s)
	ids := seedEmployees(t, s, 5)
	detector := leave.NewConflictDetector(s)
	day := date("2025-07-15")

	// ceil(5/2) = 3; two absences stay informational.
	saveRequest(t, s, "r1", ids[0], "annual", day, day, leave.StatusApproved)
	saveRequest(t, s, "r2", ids[1], "annual", day, day, leave.StatusApproved)

	load, err := detector.CheckAggregateLoad(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, load.Count)
	assert.False(t, load.Warn)
}

func TestConflict_AggregateLoad_CountsDistinctEmployees(t *testing.T) {
	// Two overlapping requests by the same person are one absence.
	s := memstore.NewMemory()
	seedCatalog(t, s)
	ids := seedEmployees(t, s, 3)
	detector := leave.NewConflictDetector(s)
	day := date("2025-07-15")

	saveRequest(t, s, "r1", ids[0], "annual", day, day, leave.StatusApproved)
	saveRequest(t, s, "r2", ids[0], "sick", date("2025-07-14"), date("2025-07-16"), leave.StatusPending)

	load, err := detector.CheckAggregateLoad(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, load.Count)
}

func TestConflict_AggregateLoad_NoEmployees(t *testing.T) {
	s := memstore.NewMemory()
	detector := leave.NewConflictDetector(s)

	load, err := detector.CheckAggregateLoad(context.Background(), date("2025-07-15"))
	require.NoError(t, err)
	assert.Zero(t, load.Count)
	assert.Zero(t, load.Ratio)
	assert.False(t, load.Warn)
}

// =============================================================================
// REST DAY
// =============================================================================

func TestConflict_IsRestDay(t *testing.T) {
	detector := leave.NewConflictDetector(memstore.NewMemory())

	assert.True(t, detector.IsRestDay(date("2025-03-09")), "March 9 2025 is a Sunday")
	assert.False(t, detector.IsRestDay(date("2025-03-08")), "Saturday is a working day here")
	assert.False(t, detector.IsRestDay(date("2025-03-10")))
}
