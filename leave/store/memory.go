// Package store provides an in-memory leave.TxStore for tests and local
// development.
package store

import (
	"context"
	"sync"

	"github.com/okapihr/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements leave.TxStore with plain maps. It additionally counts
// writes, so tests can assert that validation failures touch the store zero
// times.
type Memory struct {
	mu        sync.RWMutex
	types     map[string]leave.LeaveType
	employees map[string]leave.Employee
	requests  map[string]leave.LeaveRequest
	balances  map[balanceKey]leave.Balance

	writes int
}

type balanceKey struct {
	EmployeeID string
	TypeCode   string
}

func NewMemory() *Memory {
	return &Memory{
		types:     make(map[string]leave.LeaveType),
		employees: make(map[string]leave.Employee),
		requests:  make(map[string]leave.LeaveRequest),
		balances:  make(map[balanceKey]leave.Balance),
	}
}

// WriteCount returns how many mutating calls the store has served.
func (m *Memory) WriteCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// -----------------------------------------------------------------------------
// Leave types
// -----------------------------------------------------------------------------

func (m *Memory) SaveLeaveType(_ context.Context, t leave.LeaveType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.types[t.Code] = t
	return nil
}

func (m *Memory) GetLeaveType(_ context.Context, code string) (*leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[code]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) ListLeaveTypes(_ context.Context, activeOnly bool) ([]leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.LeaveType
	for _, t := range m.types {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Employees
// -----------------------------------------------------------------------------

func (m *Memory) SaveEmployee(_ context.Context, e leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context, activeOnly bool) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Employee
	for _, e := range m.employees {
		if activeOnly && !e.Active {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

func (m *Memory) SaveRequest(_ context.Context, r leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) DeleteRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	delete(m.requests, id)
	return nil
}

func (m *Memory) ListRequests(_ context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.LeaveRequest
	for _, r := range m.requests {
		if f.Matches(&r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Balances
// -----------------------------------------------------------------------------

func (m *Memory) GetBalance(_ context.Context, employeeID, typeCode string) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.balances[balanceKey{employeeID, typeCode}]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) SaveBalance(_ context.Context, b leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.balances[balanceKey{b.EmployeeID, b.TypeCode}] = b
	return nil
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

// WithTx simulates a transaction with a snapshot + rollback on error. The
// lock is held for the whole callback, which also serializes concurrent
// decide() calls the way a database transaction would.
func (m *Memory) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	types     map[string]leave.LeaveType
	employees map[string]leave.Employee
	requests  map[string]leave.LeaveRequest
	balances  map[balanceKey]leave.Balance
	writes    int
}

func (m *Memory) snapshot() memorySnapshot {
	snap := memorySnapshot{
		types:     make(map[string]leave.LeaveType, len(m.types)),
		employees: make(map[string]leave.Employee, len(m.employees)),
		requests:  make(map[string]leave.LeaveRequest, len(m.requests)),
		balances:  make(map[balanceKey]leave.Balance, len(m.balances)),
		writes:    m.writes,
	}
	for k, v := range m.types {
		snap.types[k] = v
	}
	for k, v := range m.employees {
		snap.employees[k] = v
	}
	for k, v := range m.requests {
		snap.requests[k] = v
	}
	for k, v := range m.balances {
		snap.balances[k] = v
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.types = snap.types
	m.employees = snap.employees
	m.requests = snap.requests
	m.balances = snap.balances
	m.writes = snap.writes
}

// txView gives the transaction callback access to the already-locked parent.
type txView struct {
	parent *Memory
}

func (tv *txView) SaveLeaveType(_ context.Context, t leave.LeaveType) error {
	tv.parent.writes++
	tv.parent.types[t.Code] = t
	return nil
}

func (tv *txView) GetLeaveType(_ context.Context, code string) (*leave.LeaveType, error) {
	t, ok := tv.parent.types[code]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (tv *txView) ListLeaveTypes(_ context.Context, activeOnly bool) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	for _, t := range tv.parent.types {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (tv *txView) SaveEmployee(_ context.Context, e leave.Employee) error {
	tv.parent.writes++
	tv.parent.employees[e.ID] = e
	return nil
}

func (tv *txView) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	e, ok := tv.parent.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (tv *txView) ListEmployees(_ context.Context, activeOnly bool) ([]leave.Employee, error) {
	var out []leave.Employee
	for _, e := range tv.parent.employees {
		if activeOnly && !e.Active {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (tv *txView) SaveRequest(_ context.Context, r leave.LeaveRequest) error {
	tv.parent.writes++
	tv.parent.requests[r.ID] = r
	return nil
}

func (tv *txView) GetRequest(_ context.Context, id string) (*leave.LeaveRequest, error) {
	r, ok := tv.parent.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (tv *txView) DeleteRequest(_ context.Context, id string) error {
	tv.parent.writes++
	delete(tv.parent.requests, id)
	return nil
}

func (tv *txView) ListRequests(_ context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, r := range tv.parent.requests {
		if f.Matches(&r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (tv *txView) GetBalance(_ context.Context, employeeID, typeCode string) (*leave.Balance, error) {
	b, ok := tv.parent.balances[balanceKey{employeeID, typeCode}]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (tv *txView) SaveBalance(_ context.Context, b leave.Balance) error {
	tv.parent.writes++
	tv.parent.balances[balanceKey{b.EmployeeID, b.TypeCode}] = b
	return nil
}
