/*
Package sqlite provides a SQLite-backed implementation of leave.TxStore.

PURPOSE:
  Persists leave types, employees, requests, and balance rows. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  leave_types:    Catalog of configurable absence categories
  employees:      Directory records (active flag drives fan-out)
  leave_requests: The approval state machine rows
  leave_balances: Per employee, per type allotted/consumed accounting

CONCURRENCY:
  WithTx serializes behind a mutex and a database transaction. decide() and
  delete() run inside it, so the pending re-check and the balance write
  commit together. SQLite is opened in WAL mode: readers don't block, single
  writer at a time.

AMOUNTS:
  Balance columns are stored as decimal strings, never floats.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go:        Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/okapihr/leave-engine/leave"
)

// Store implements leave.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ leave.TxStore = (*Store)(nil)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases from evaporating
	// between pool checkouts.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_types (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		duration_value INTEGER NOT NULL,
		duration_unit TEXT NOT NULL,
		default_balance INTEGER NOT NULL DEFAULT 0,
		requires_approval INTEGER NOT NULL DEFAULT 1,
		active INTEGER NOT NULL DEFAULT 1,
		color TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type_code TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		auto_end INTEGER NOT NULL DEFAULT 0,
		balance_applied INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		decided_at TEXT,
		decided_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);
	-- Calendar projection hot path: interval intersection on a month range
	CREATE INDEX IF NOT EXISTS idx_requests_dates
		ON leave_requests(start_date, end_date);

	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id TEXT NOT NULL,
		type_code TEXT NOT NULL,
		allotted TEXT NOT NULL,
		consumed TEXT NOT NULL,
		PRIMARY KEY (employee_id, type_code)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// dbtx is the subset of *sql.DB / *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func saveLeaveType(ctx context.Context, q dbtx, t leave.LeaveType) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_types (code, name, duration_value, duration_unit, default_balance, requires_approval, active, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			duration_value = excluded.duration_value,
			duration_unit = excluded.duration_unit,
			default_balance = excluded.default_balance,
			requires_approval = excluded.requires_approval,
			active = excluded.active,
			color = excluded.color`,
		t.Code, t.Name, t.DurationValue, string(t.DurationUnit), t.DefaultBalance,
		boolToInt(t.RequiresApproval), boolToInt(t.Active), t.Color)
	return err
}

func getLeaveType(ctx context.Context, q dbtx, code string) (*leave.LeaveType, error) {
	row := q.QueryRowContext(ctx, `
		SELECT code, name, duration_value, duration_unit, default_balance, requires_approval, active, color
		FROM leave_types WHERE code = ?`, code)

	var t leave.LeaveType
	var unit string
	var requiresApproval, active int
	err := row.Scan(&t.Code, &t.Name, &t.DurationValue, &unit, &t.DefaultBalance, &requiresApproval, &active, &t.Color)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.DurationUnit = leave.DurationUnit(unit)
	t.RequiresApproval = requiresApproval != 0
	t.Active = active != 0
	return &t, nil
}

func listLeaveTypes(ctx context.Context, q dbtx, activeOnly bool) ([]leave.LeaveType, error) {
	query := `SELECT code, name, duration_value, duration_unit, default_balance, requires_approval, active, color
		FROM leave_types`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY code`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.LeaveType
	for rows.Next() {
		var t leave.LeaveType
		var unit string
		var requiresApproval, active int
		if err := rows.Scan(&t.Code, &t.Name, &t.DurationValue, &unit, &t.DefaultBalance, &requiresApproval, &active, &t.Color); err != nil {
			return nil, err
		}
		t.DurationUnit = leave.DurationUnit(unit)
		t.RequiresApproval = requiresApproval != 0
		t.Active = active != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func saveEmployee(ctx context.Context, q dbtx, e leave.Employee) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			active = excluded.active`,
		e.ID, e.Name, e.Email, boolToInt(e.Active))
	return err
}

func getEmployee(ctx context.Context, q dbtx, id string) (*leave.Employee, error) {
	var e leave.Employee
	var active int
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, active FROM employees WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Email, &active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Active = active != 0
	return &e, nil
}

func listEmployees(ctx context.Context, q dbtx, activeOnly bool) ([]leave.Employee, error) {
	query := `SELECT id, name, email, active FROM employees`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Employee
	for rows.Next() {
		var e leave.Employee
		var active int
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &active); err != nil {
			return nil, err
		}
		e.Active = active != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestSelect = `
	SELECT id, employee_id, type_code, start_date, end_date, reason, status,
	       auto_end, balance_applied, created_at, decided_at, decided_by
	FROM leave_requests`

func saveRequest(ctx context.Context, q dbtx, r leave.LeaveRequest) error {
	var decidedAt any
	if r.DecidedAt != nil {
		decidedAt = r.DecidedAt.UTC().Format(time.RFC3339)
	}
	var decidedBy any
	if r.DecidedBy != nil {
		decidedBy = *r.DecidedBy
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_requests
			(id, employee_id, type_code, start_date, end_date, reason, status, auto_end, balance_applied, created_at, decided_at, decided_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			balance_applied = excluded.balance_applied,
			decided_at = excluded.decided_at,
			decided_by = excluded.decided_by`,
		r.ID, r.EmployeeID, r.TypeCode, r.Start.String(), r.End.String(), r.Reason,
		string(r.Status), boolToInt(r.AutoCalculatedEnd), boolToInt(r.BalanceApplied),
		r.CreatedAt.UTC().Format(time.RFC3339), decidedAt, decidedBy)
	return err
}

func getRequest(ctx context.Context, q dbtx, id string) (*leave.LeaveRequest, error) {
	rows, err := q.QueryContext(ctx, requestSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}

func deleteRequest(ctx context.Context, q dbtx, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM leave_requests WHERE id = ?`, id)
	return err
}

func listRequests(ctx context.Context, q dbtx, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	query := requestSelect
	var conds []string
	var args []any

	if f.EmployeeID != "" {
		conds = append(conds, `employee_id = ?`)
		args = append(args, f.EmployeeID)
	}
	if f.ExcludeID != "" {
		conds = append(conds, `id != ?`)
		args = append(args, f.ExcludeID)
	}
	if len(f.Statuses) > 0 {
		placeholders := ""
		for i, st := range f.Statuses {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
			args = append(args, string(st))
		}
		conds = append(conds, `status IN (`+placeholders+`)`)
	}
	// Inclusive interval intersection with [From, To]: ISO dates compare
	// lexicographically, so string comparison is date comparison.
	if f.From != nil {
		conds = append(conds, `end_date >= ?`)
		args = append(args, f.From.String())
	}
	if f.To != nil {
		conds = append(conds, `start_date <= ?`)
		args = append(args, f.To.String())
	}

	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY start_date, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for rows.Next() {
		var r leave.LeaveRequest
		var start, end, createdAt, status string
		var autoEnd, balanceApplied int
		var decidedAt, decidedBy sql.NullString
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.TypeCode, &start, &end, &r.Reason,
			&status, &autoEnd, &balanceApplied, &createdAt, &decidedAt, &decidedBy); err != nil {
			return nil, err
		}

		var err error
		if r.Start, err = leave.ParseDate(start); err != nil {
			return nil, err
		}
		if r.End, err = leave.ParseDate(end); err != nil {
			return nil, err
		}
		r.Status = leave.RequestStatus(status)
		r.AutoCalculatedEnd = autoEnd != 0
		r.BalanceApplied = balanceApplied != 0
		if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, err
		}
		if decidedAt.Valid {
			t, err := time.Parse(time.RFC3339, decidedAt.String)
			if err != nil {
				return nil, err
			}
			r.DecidedAt = &t
		}
		if decidedBy.Valid {
			by := decidedBy.String
			r.DecidedBy = &by
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// BALANCES
// =============================================================================

func getBalance(ctx context.Context, q dbtx, employeeID, typeCode string) (*leave.Balance, error) {
	var allotted, consumed string
	err := q.QueryRowContext(ctx,
		`SELECT allotted, consumed FROM leave_balances WHERE employee_id = ? AND type_code = ?`,
		employeeID, typeCode).Scan(&allotted, &consumed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b := leave.Balance{EmployeeID: employeeID, TypeCode: typeCode}
	if b.Allotted, err = decimal.NewFromString(allotted); err != nil {
		return nil, fmt.Errorf("corrupt allotted value %q: %w", allotted, err)
	}
	if b.Consumed, err = decimal.NewFromString(consumed); err != nil {
		return nil, fmt.Errorf("corrupt consumed value %q: %w", consumed, err)
	}
	return &b, nil
}

func saveBalance(ctx context.Context, q dbtx, b leave.Balance) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_balances (employee_id, type_code, allotted, consumed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id, type_code) DO UPDATE SET
			allotted = excluded.allotted,
			consumed = excluded.consumed`,
		b.EmployeeID, b.TypeCode, b.Allotted.String(), b.Consumed.String())
	return err
}

// =============================================================================
// STORE METHODS (delegate to the shared query helpers)
// =============================================================================

func (s *Store) SaveLeaveType(ctx context.Context, t leave.LeaveType) error {
	return saveLeaveType(ctx, s.db, t)
}

func (s *Store) GetLeaveType(ctx context.Context, code string) (*leave.LeaveType, error) {
	return getLeaveType(ctx, s.db, code)
}

func (s *Store) ListLeaveTypes(ctx context.Context, activeOnly bool) ([]leave.LeaveType, error) {
	return listLeaveTypes(ctx, s.db, activeOnly)
}

func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	return saveEmployee(ctx, s.db, e)
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	return getEmployee(ctx, s.db, id)
}

func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]leave.Employee, error) {
	return listEmployees(ctx, s.db, activeOnly)
}

func (s *Store) SaveRequest(ctx context.Context, r leave.LeaveRequest) error {
	return saveRequest(ctx, s.db, r)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	return getRequest(ctx, s.db, id)
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	return deleteRequest(ctx, s.db, id)
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	return listRequests(ctx, s.db, f)
}

func (s *Store) GetBalance(ctx context.Context, employeeID, typeCode string) (*leave.Balance, error) {
	return getBalance(ctx, s.db, employeeID, typeCode)
}

func (s *Store) SaveBalance(ctx context.Context, b leave.Balance) error {
	return saveBalance(ctx, s.db, b)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The mutex serializes
// writers; SQLite allows a single writer anyway, and this keeps the pending
// re-check in decide() honest.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&txStore{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// txStore exposes the leave.Store interface over one *sql.Tx.
type txStore struct {
	q *sql.Tx
}

var _ leave.Store = (*txStore)(nil)

func (t *txStore) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	return saveLeaveType(ctx, t.q, lt)
}

func (t *txStore) GetLeaveType(ctx context.Context, code string) (*leave.LeaveType, error) {
	return getLeaveType(ctx, t.q, code)
}

func (t *txStore) ListLeaveTypes(ctx context.Context, activeOnly bool) ([]leave.LeaveType, error) {
	return listLeaveTypes(ctx, t.q, activeOnly)
}

func (t *txStore) SaveEmployee(ctx context.Context, e leave.Employee) error {
	return saveEmployee(ctx, t.q, e)
}

func (t *txStore) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	return getEmployee(ctx, t.q, id)
}

func (t *txStore) ListEmployees(ctx context.Context, activeOnly bool) ([]leave.Employee, error) {
	return listEmployees(ctx, t.q, activeOnly)
}

func (t *txStore) SaveRequest(ctx context.Context, r leave.LeaveRequest) error {
	return saveRequest(ctx, t.q, r)
}

func (t *txStore) GetRequest(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	return getRequest(ctx, t.q, id)
}

func (t *txStore) DeleteRequest(ctx context.Context, id string) error {
	return deleteRequest(ctx, t.q, id)
}

func (t *txStore) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	return listRequests(ctx, t.q, f)
}

func (t *txStore) GetBalance(ctx context.Context, employeeID, typeCode string) (*leave.Balance, error) {
	return getBalance(ctx, t.q, employeeID, typeCode)
}

func (t *txStore) SaveBalance(ctx context.Context, b leave.Balance) error {
	return saveBalance(ctx, t.q, b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
