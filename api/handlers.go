/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates everything else to the leave package.

ENDPOINTS:
  Leave types:
    GET    /api/leave-types               List (all or active only)
    GET    /api/leave-types/{code}        Get one
    POST   /api/leave-types               Upsert (admin)

  Employees:
    GET    /api/employees                 List
    POST   /api/employees                 Create (admin)
    GET    /api/employees/{id}/balance    Balance for one leave type

  Requests:
    POST   /api/requests                  Create (single or fan-out)
    GET    /api/requests                  List, filtered
    GET    /api/requests/stats            Status counts for the caller
    GET    /api/requests/{id}             Get one
    GET    /api/requests/{id}/conflicts   Overlap/load advisories
    POST   /api/requests/{id}/approve     Decide: approve
    POST   /api/requests/{id}/reject      Decide: reject
    DELETE /api/requests/{id}             Delete

  Helpers:
    GET    /api/duration/end-date         Interactive end-date proposal
    GET    /api/calendar/{year}/{month}   Month projection

IDENTITY:
  Authentication is owned by the surrounding application. Handlers read the
  caller from X-Employee-ID, X-Admin, and X-Can-Edit headers and pass a
  leave.Actor down for authorization checks only.

ERROR HANDLING:
  Errors are returned as JSON with the matching HTTP status:
  - 400: Validation errors, unknown leave type
  - 403: Forbidden transitions
  - 404: Missing records
  - 409: Insufficient balance, concurrent decisions
  - 500: Everything else
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/okapihr/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     leave.TxStore
	Catalog   *leave.Catalog
	Duration  *leave.DurationCalculator
	Conflicts *leave.ConflictDetector
	Ledger    *leave.BalanceLedger
	Engine    *leave.Engine
	Calendar  *leave.CalendarProjector
	Log       *logrus.Logger
}

// NewHandler wires the engine components over one store.
func NewHandler(store leave.TxStore, log *logrus.Logger) *Handler {
	catalog := leave.NewCatalog(store)
	return &Handler{
		Store:     store,
		Catalog:   catalog,
		Duration:  leave.NewDurationCalculator(catalog),
		Conflicts: leave.NewConflictDetector(store),
		Ledger:    leave.NewBalanceLedger(store, catalog),
		Engine:    leave.NewEngine(store),
		Calendar:  leave.NewCalendarProjector(store),
		Log:       log,
	}
}

// actorFrom reads the identity headers the auth layer injects upstream.
func actorFrom(r *http.Request) leave.Actor {
	return leave.Actor{
		EmployeeID: r.Header.Get("X-Employee-ID"),
		Admin:      r.Header.Get("X-Admin") == "true",
		CanEdit:    r.Header.Get("X-Can-Edit") == "true",
	}
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	types, err := h.Catalog.List(r.Context(), activeOnly)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]LeaveTypeDTO, len(types))
	for i, t := range types {
		dtos[i] = toLeaveTypeDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetLeaveType(w http.ResponseWriter, r *http.Request) {
	t, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveTypeDTO(*t))
}

func (h *Handler) UpsertLeaveType(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.Admin {
		h.writeError(w, &leave.ForbiddenError{ActorID: actor.EmployeeID, Action: "edit leave types"})
		return
	}

	var dto LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid request body"})
		return
	}
	t, err := h.Catalog.Upsert(r.Context(), dto.toDomain())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveTypeDTO(*t))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	employees, err := h.Store.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{ID: e.ID, Name: e.Name, Email: e.Email, Active: e.Active}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.Admin {
		h.writeError(w, &leave.ForbiddenError{ActorID: actor.EmployeeID, Action: "create employees"})
		return
	}

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid request body"})
		return
	}
	if req.ID == "" || req.Name == "" {
		h.writeError(w, &leave.ValidationError{Field: "id", Message: "id and name are required"})
		return
	}

	emp := leave.Employee{ID: req.ID, Name: req.Name, Email: req.Email, Active: true}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, EmployeeDTO{ID: emp.ID, Name: emp.Name, Email: emp.Email, Active: true})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	typeCode := r.URL.Query().Get("leave_type")
	if typeCode == "" {
		typeCode = "annual"
	}

	snap, err := h.Ledger.Snapshot(r.Context(), employeeID, typeCode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		EmployeeID: employeeID,
		LeaveType:  typeCode,
		Allotted:   snap.Allotted.String(),
		Consumed:   snap.Consumed.String(),
		Available:  snap.Available().String(),
	})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	var body CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid request body"})
		return
	}

	start, err := leave.ParseDate(body.StartDate)
	if err != nil {
		h.writeError(w, &leave.ValidationError{Field: "start_date", Message: err.Error()})
		return
	}

	in := leave.CreateInput{
		EmployeeID:      body.EmployeeID,
		TypeCode:        body.LeaveType,
		Start:           start,
		Reason:          body.Reason,
		ForAllEmployees: body.ForAllEmployees,
	}
	if in.EmployeeID == "" {
		in.EmployeeID = actor.EmployeeID
	}
	if body.EndDate != "" {
		end, err := leave.ParseDate(body.EndDate)
		if err != nil {
			h.writeError(w, &leave.ValidationError{Field: "end_date", Message: err.Error()})
			return
		}
		in.End = &end
	}

	result, err := h.Engine.Create(r.Context(), in, actor)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if result.FanOut != nil {
		if len(result.FanOut.Failed) > 0 {
			h.Log.WithFields(logrus.Fields{
				"succeeded": result.FanOut.Succeeded,
				"failed":    len(result.FanOut.Failed),
			}).Warn("holiday fan-out completed with failures")
		}
		dto := FanOutResultDTO{Count: result.FanOut.Succeeded}
		for _, f := range result.FanOut.Failed {
			dto.Failed = append(dto.Failed, FanOutFailureDTO{EmployeeID: f.EmployeeID, Reason: f.Reason})
		}
		writeJSON(w, http.StatusCreated, dto)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*result.Request))
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	filter := leave.RequestFilter{}
	// Non-privileged callers only see their own requests.
	if actor.Admin || actor.CanEdit {
		filter.EmployeeID = r.URL.Query().Get("employee_id")
	} else {
		filter.EmployeeID = actor.EmployeeID
	}
	if st := r.URL.Query().Get("status"); st != "" {
		filter.Statuses = []leave.RequestStatus{leave.RequestStatus(st)}
	}

	requests, err := h.Store.ListRequests(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Store.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req == nil {
		h.writeError(w, leave.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

func (h *Handler) GetRequestStats(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	filter := leave.RequestFilter{}
	if !actor.Admin && !actor.CanEdit {
		filter.EmployeeID = actor.EmployeeID
	}
	requests, err := h.Store.ListRequests(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var stats StatsDTO
	for _, req := range requests {
		switch req.Status {
		case leave.StatusPending:
			stats.Pending++
		case leave.StatusApproved:
			stats.Approved++
		case leave.StatusRejected:
			stats.Rejected++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetRequestConflicts reports the advisory checks for an existing request's
// interval: sibling overlaps, rest-day start, and the aggregate absence load
// on the start day. Nothing here blocks anything.
func (h *Handler) GetRequestConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := h.Store.GetRequest(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req == nil {
		h.writeError(w, leave.ErrNotFound)
		return
	}

	overlaps, err := h.Conflicts.CheckOverlap(ctx, req.EmployeeID, req.Start, req.End, req.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	load, err := h.Conflicts.CheckAggregateLoad(ctx, req.Start)
	if err != nil {
		h.writeError(w, err)
		return
	}

	report := ConflictReportDTO{
		Overlaps:        make([]LeaveRequestDTO, len(overlaps)),
		StartsOnRestDay: h.Conflicts.IsRestDay(req.Start),
		AggregateLoad: &AggregateLoadDTO{
			Date:  load.Date.String(),
			Count: load.Count,
			Total: load.Total,
			Ratio: load.Ratio,
			Warn:  load.Warn,
		},
	}
	for i, o := range overlaps {
		report.Overlaps[i] = toRequestDTO(o)
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusApproved)
}

func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision leave.RequestStatus) {
	req, err := h.Engine.Decide(r.Context(), chi.URLParam(r, "id"), decision, actorFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Delete(r.Context(), chi.URLParam(r, "id"), actorFrom(r)); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// DURATION / CALENDAR HANDLERS
// =============================================================================

// ProposeEndDate is called interactively as the user changes the type or
// start-date fields.
func (h *Handler) ProposeEndDate(w http.ResponseWriter, r *http.Request) {
	typeCode := r.URL.Query().Get("leave_type")
	start, err := leave.ParseDate(r.URL.Query().Get("start_date"))
	if err != nil {
		h.writeError(w, &leave.ValidationError{Field: "start_date", Message: err.Error()})
		return
	}

	end, err := h.Duration.ComputeEndDate(r.Context(), typeCode, start)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProposedEndDateDTO{
		LeaveType: typeCode,
		StartDate: start.String(),
		EndDate:   end.String(),
	})
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.writeError(w, &leave.ValidationError{Field: "year", Message: "invalid year"})
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		h.writeError(w, &leave.ValidationError{Field: "month", Message: "month must be 1-12"})
		return
	}

	actor := actorFrom(r)
	scope := leave.ScopeAll()
	if r.URL.Query().Get("scope") == "own" || (!actor.Admin && !actor.CanEdit) {
		scope = leave.ScopeEmployees(actor.EmployeeID)
	}

	requests, err := h.Calendar.ForMonth(r.Context(), year, time.Month(month), scope)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	dto := ErrorDTO{Error: err.Error()}

	var ve *leave.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		dto.Field = ve.Field
	case errors.Is(err, leave.ErrUnknownLeaveType):
		status = http.StatusBadRequest
	case errors.Is(err, leave.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, leave.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, leave.ErrInsufficientBalance),
		errors.Is(err, leave.ErrConcurrentModification):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, dto)
}
