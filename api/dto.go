/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication. These decouple the domain model
  from the wire contract: field renaming, API-specific shapes, and version
  evolution happen here without touching the leave package.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (date parsing, required bodies) is done in handlers;
  business validation lives in the leave package. DTOs are pure data
  carriers.
*/
package api

import (
	"time"

	"github.com/okapihr/leave-engine/leave"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveTypeDTO mirrors leave.LeaveType on the wire.
type LeaveTypeDTO struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	DurationValue    int    `json:"duration_value"`
	DurationUnit     string `json:"duration_unit"`
	DefaultBalance   int    `json:"default_balance"`
	RequiresApproval bool   `json:"requires_approval"`
	Active           bool   `json:"active"`
	Color            string `json:"color,omitempty"`
}

func toLeaveTypeDTO(t leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		Code:             t.Code,
		Name:             t.Name,
		DurationValue:    t.DurationValue,
		DurationUnit:     string(t.DurationUnit),
		DefaultBalance:   t.DefaultBalance,
		RequiresApproval: t.RequiresApproval,
		Active:           t.Active,
		Color:            t.Color,
	}
}

func (d LeaveTypeDTO) toDomain() leave.LeaveType {
	return leave.LeaveType{
		Code:             d.Code,
		Name:             d.Name,
		DurationValue:    d.DurationValue,
		DurationUnit:     leave.DurationUnit(d.DurationUnit),
		DefaultBalance:   d.DefaultBalance,
		RequiresApproval: d.RequiresApproval,
		Active:           d.Active,
		Color:            d.Color,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Active bool   `json:"active"`
}

type CreateEmployeeRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// CreateLeaveRequest is the submission body. end_date is optional; when
// omitted the duration calculator proposes it from the leave type.
type CreateLeaveRequest struct {
	EmployeeID      string `json:"employee_id"`
	LeaveType       string `json:"leave_type"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date,omitempty"`
	Reason          string `json:"reason"`
	ForAllEmployees bool   `json:"for_all_employees,omitempty"`
}

type LeaveRequestDTO struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	LeaveType         string  `json:"leave_type"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	WorkingDays       int     `json:"working_days"`
	AutoCalculatedEnd bool    `json:"auto_calculated_end"`
	CreatedAt         string  `json:"created_at"`
	DecidedAt         *string `json:"decided_at,omitempty"`
	DecidedBy         *string `json:"decided_by,omitempty"`
}

func toRequestDTO(r leave.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		LeaveType:         r.TypeCode,
		StartDate:         r.Start.String(),
		EndDate:           r.End.String(),
		Reason:            r.Reason,
		Status:            string(r.Status),
		WorkingDays:       r.WorkingDays(),
		AutoCalculatedEnd: r.AutoCalculatedEnd,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		s := r.DecidedAt.Format(time.RFC3339)
		dto.DecidedAt = &s
	}
	dto.DecidedBy = r.DecidedBy
	return dto
}

// FanOutResultDTO is the bulk-creation summary for organization-wide
// holidays.
type FanOutResultDTO struct {
	Count  int                `json:"count"`
	Failed []FanOutFailureDTO `json:"failed,omitempty"`
}

type FanOutFailureDTO struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

// =============================================================================
// CONFLICTS / PROPOSALS
// =============================================================================

// ProposedEndDateDTO is the interactive duration-calculator response.
type ProposedEndDateDTO struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ConflictReportDTO carries the advisory checks for a candidate interval.
type ConflictReportDTO struct {
	Overlaps        []LeaveRequestDTO `json:"overlaps"`
	StartsOnRestDay bool              `json:"starts_on_rest_day"`
	AggregateLoad   *AggregateLoadDTO `json:"aggregate_load,omitempty"`
}

type AggregateLoadDTO struct {
	Date  string  `json:"date"`
	Count int     `json:"count"`
	Total int     `json:"total"`
	Ratio float64 `json:"ratio"`
	Warn  bool    `json:"warn"`
}

// =============================================================================
// BALANCES / STATS
// =============================================================================

type BalanceDTO struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	Allotted   string `json:"allotted"`
	Consumed   string `json:"consumed"`
	Available  string `json:"available"`
}

// StatsDTO is the per-caller status breakdown the dashboard tiles show.
type StatsDTO struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// DecideRequest is the approve/reject body (the decision itself is in the
// URL; the body is optional commentary for parity with the portal).
type DecideRequest struct {
	Comment string `json:"comment,omitempty"`
}

// ErrorDTO is the uniform error envelope.
type ErrorDTO struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
