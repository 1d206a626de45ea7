/*
engine.go - Leave request lifecycle orchestration

PURPOSE:
  Orchestrates creation, validation, and state transitions of leave requests.
  This is the only writer of requests and balance rows; everything else in
  the package is a read-only view.

STATE MACHINE:

  create ──▶ pending ──decide──▶ approved   (reserves balance)
                  │
                  └───decide──▶ rejected    (no balance effect)

  Deletion is out-of-band from any state: owner while pending, admin any
  time. Deleting an approved request releases the reserved balance. There is
  no transition from approved/rejected back to pending; corrections are
  delete-and-recreate, which keeps the audit trail simple at the cost of
  mutability.

FAN-OUT:
  A "for all employees" submission is the organization-holiday path: the type
  is forced to TypePublic and one request per active employee is created
  directly in approved state. Holidays are not counted against personal
  balances, so no reservation happens. Fan-out is not atomic across
  employees; partial failures are collected into FanOutResult rather than
  aborting everyone's holiday on one bad record.

CONCURRENCY:
  decide() and delete() run inside a store transaction and re-check that the
  request is still pending (respectively still exists) before committing, so
  two concurrent approvals cannot both pass the balance check.
*/
package leave

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine orchestrates the request lifecycle.
type Engine struct {
	store TxStore
	now   func() time.Time
}

func NewEngine(store TxStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateInput is a submission from an employee, or from an admin on an
// employee's behalf.
type CreateInput struct {
	EmployeeID string
	TypeCode   string
	Start      Date
	// End overrides the duration-derived end date when set. The override is
	// recorded on the request via AutoCalculatedEnd = false.
	End    *Date
	Reason string

	// ForAllEmployees switches to the organization-holiday fan-out path.
	ForAllEmployees bool
}

// FanOutFailure records one employee whose holiday record could not be
// created.
type FanOutFailure struct {
	EmployeeID string
	Reason     string
}

// FanOutResult is the bulk-operation summary for a fan-out creation. A
// single success/failure boolean would hide partial failures across hundreds
// of employees; this keeps them observable and individually retriable.
type FanOutResult struct {
	Succeeded int
	Failed    []FanOutFailure
}

// CreateResult carries either the single created request or the fan-out
// summary.
type CreateResult struct {
	Request *LeaveRequest
	FanOut  *FanOutResult
}

// Create validates the submission and persists it. Validation runs before
// any write: a malformed input never partially applies.
//
// Single path: one request in pending (or directly approved for types that
// do not require approval; no balance is reserved in that case).
// Fan-out path: requires an admin actor, forces TypePublic, one approved
// request per active employee.
func (e *Engine) Create(ctx context.Context, in CreateInput, actor Actor) (*CreateResult, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Message: "reason is required"}
	}
	if in.Start.IsZero() {
		return nil, &ValidationError{Field: "start_date", Message: "start date is required"}
	}

	if in.ForAllEmployees {
		return e.createFanOut(ctx, in, actor)
	}

	if in.EmployeeID == "" {
		return nil, &ValidationError{Field: "employee_id", Message: "employee is required"}
	}
	if !actor.Admin && actor.EmployeeID != in.EmployeeID {
		return nil, &ForbiddenError{ActorID: actor.EmployeeID, Action: "create leave for another employee"}
	}

	catalog := NewCatalog(e.store)
	t, err := catalog.Get(ctx, in.TypeCode)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, &ValidationError{Field: "leave_type", Message: "leave type " + t.Code + " is no longer selectable"}
	}

	req, err := e.buildRequest(in, *t)
	if err != nil {
		return nil, err
	}

	if !t.RequiresApproval {
		// No approval queue for this type; the record goes straight to
		// approved. Balance is only ever reserved by decide(), so none is
		// reserved here.
		e.markDecided(req, "system")
	}

	if err := e.store.SaveRequest(ctx, *req); err != nil {
		return nil, err
	}
	return &CreateResult{Request: req}, nil
}

// buildRequest resolves the end date and assembles the pending record.
// No writes happen here.
func (e *Engine) buildRequest(in CreateInput, t LeaveType) (*LeaveRequest, error) {
	req := &LeaveRequest{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		TypeCode:   t.Code,
		Start:      in.Start,
		Reason:     in.Reason,
		Status:     StatusPending,
		CreatedAt:  e.now(),
	}

	if in.End != nil {
		if in.End.Before(in.Start) {
			return nil, &ValidationError{Field: "end_date", Message: "end date is before start date"}
		}
		req.End = *in.End
		req.AutoCalculatedEnd = false
		return req, nil
	}

	end, err := EndDateFor(t, in.Start)
	if err != nil {
		return nil, err
	}
	req.End = end
	req.AutoCalculatedEnd = true
	return req, nil
}

func (e *Engine) createFanOut(ctx context.Context, in CreateInput, actor Actor) (*CreateResult, error) {
	if !actor.Admin {
		return nil, &ForbiddenError{ActorID: actor.EmployeeID, Action: "create an organization-wide holiday"}
	}

	catalog := NewCatalog(e.store)
	t, err := catalog.Get(ctx, TypePublic)
	if err != nil {
		return nil, err
	}

	employees, err := e.store.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}

	result := &FanOutResult{}
	for _, emp := range employees {
		single := in
		single.EmployeeID = emp.ID
		req, err := e.buildRequest(single, *t)
		if err != nil {
			result.Failed = append(result.Failed, FanOutFailure{EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}
		// Holidays bypass the pending state and never touch personal
		// balances.
		e.markDecided(req, actor.EmployeeID)
		if err := e.store.SaveRequest(ctx, *req); err != nil {
			result.Failed = append(result.Failed, FanOutFailure{EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return &CreateResult{FanOut: result}, nil
}

func (e *Engine) markDecided(req *LeaveRequest, by string) {
	now := e.now()
	req.Status = StatusApproved
	req.DecidedAt = &now
	req.DecidedBy = &by
}

// =============================================================================
// DECIDE
// =============================================================================

// Decide moves a pending request to approved or rejected. Approval reserves
// balance; when the ledger refuses, the transition aborts, the request stays
// pending, and the InsufficientBalanceError is surfaced to the approver.
func (e *Engine) Decide(ctx context.Context, requestID string, decision RequestStatus, actor Actor) (*LeaveRequest, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, &ValidationError{Field: "decision", Message: "decision must be approved or rejected"}
	}
	if !actor.Admin && !actor.CanEdit {
		return nil, &ForbiddenError{ActorID: actor.EmployeeID, Action: "decide leave requests"}
	}

	var decided *LeaveRequest
	err := e.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrNotFound
		}
		// Re-checked inside the transaction: a concurrent decision that
		// committed first makes this one fail instead of double-reserving.
		if req.Status != StatusPending {
			return ErrConcurrentModification
		}

		if decision == StatusApproved {
			catalog := NewCatalog(s)
			ledger := NewBalanceLedger(s, catalog)
			days := decimal.NewFromInt(int64(req.WorkingDays()))
			if err := ledger.Reserve(ctx, req.EmployeeID, req.TypeCode, days); err != nil {
				return err
			}
			req.BalanceApplied = true
		}

		now := e.now()
		req.Status = decision
		req.DecidedAt = &now
		req.DecidedBy = &actor.EmployeeID
		if err := s.SaveRequest(ctx, *req); err != nil {
			return err
		}
		decided = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete hard-removes a request. Permitted for the owning employee while the
// request is pending, or for an admin at any time. Deleting a request whose
// approval reserved balance restores exactly that reservation.
func (e *Engine) Delete(ctx context.Context, requestID string, actor Actor) error {
	return e.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrNotFound
		}

		owner := actor.EmployeeID == req.EmployeeID
		if !actor.Admin && !(owner && req.Status == StatusPending) {
			return &ForbiddenError{ActorID: actor.EmployeeID, Action: "delete request " + requestID}
		}

		if req.Status == StatusApproved && req.BalanceApplied {
			catalog := NewCatalog(s)
			ledger := NewBalanceLedger(s, catalog)
			days := decimal.NewFromInt(int64(req.WorkingDays()))
			if err := ledger.Release(ctx, req.EmployeeID, req.TypeCode, days); err != nil {
				return err
			}
		}
		return s.DeleteRequest(ctx, requestID)
	})
}
