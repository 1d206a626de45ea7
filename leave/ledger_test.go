/*
ledger_test.go - Balance accounting tests
*/
package leave_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapihr/leave-engine/leave"
)

func newTestLedger(t *testing.T) (*leave.BalanceLedger, leave.Store) {
	t.Helper()
	s := newTestStore(t)
	return leave.NewBalanceLedger(s, leave.NewCatalog(s)), s
}

func TestLedger_LazyDefaultAllotment(t *testing.T) {
	// GIVEN: No ledger row exists for (alice, annual)
	// WHEN: The balance is read
	// THEN: The type's default allotment applies, nothing consumed

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	snap, err := ledger.Snapshot(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	assert.True(t, snap.Allotted.Equal(decimal.NewFromInt(30)))
	assert.True(t, snap.Consumed.IsZero())

	available, err := ledger.Available(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(30)))
}

func TestLedger_UnknownTypeSurfaces(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Available(context.Background(), "emp-alice", "gardening")
	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)
}

func TestLedger_ReserveConsumes(t *testing.T) {
	ledger, s := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(7)))

	// The row is materialized on first reservation.
	row, err := s.GetBalance(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.Consumed.Equal(decimal.NewFromInt(7)))

	available, err := ledger.Available(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(23)))
}

func TestLedger_ReserveInsufficient(t *testing.T) {
	// GIVEN: 30 allotted, 28 already consumed
	// WHEN: 5 more days are reserved
	// THEN: InsufficientBalanceError carrying both figures, no state change

	ledger, s := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(28)))

	err := ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(5))
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var ib *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.True(t, ib.Available.Equal(decimal.NewFromInt(2)))
	assert.True(t, ib.Requested.Equal(decimal.NewFromInt(5)))

	row, err := s.GetBalance(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	assert.True(t, row.Consumed.Equal(decimal.NewFromInt(28)), "failed reservation must not move the ledger")
}

func TestLedger_ReserveExactRemainder(t *testing.T) {
	// Consuming down to exactly zero is allowed; only going below fails.
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(30)))

	available, err := ledger.Available(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	assert.True(t, available.IsZero())

	err = ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestLedger_ReleaseRestores(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(10)))
	require.NoError(t, ledger.Release(ctx, "emp-alice", "annual", decimal.NewFromInt(10)))

	available, err := ledger.Available(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(30)))
}

func TestLedger_ReleaseFloorsAtZero(t *testing.T) {
	// Releasing more than was consumed clamps instead of going negative.
	ledger, s := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(3)))
	require.NoError(t, ledger.Release(ctx, "emp-alice", "annual", decimal.NewFromInt(10)))

	row, err := s.GetBalance(ctx, "emp-alice", "annual")
	require.NoError(t, err)
	assert.True(t, row.Consumed.IsZero())
}

func TestLedger_PairsAreIndependent(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, "emp-alice", "annual", decimal.NewFromInt(10)))

	sick, err := ledger.Available(ctx, "emp-alice", "sick")
	require.NoError(t, err)
	assert.True(t, sick.Equal(decimal.NewFromInt(15)), "reserving annual must not touch sick")

	bob, err := ledger.Available(ctx, "emp-bob", "annual")
	require.NoError(t, err)
	assert.True(t, bob.Equal(decimal.NewFromInt(30)), "reserving for alice must not touch bob")
}
