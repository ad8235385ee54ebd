/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator struct tags; handlers run them through a
  shared validator instance before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - scheduler/types.go: The domain model behind them
*/
package api

import (
	"github.com/mkomis20/Team-Scheduler/scheduler"
)

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and the caller's resolved screens.
type LoginResponse struct {
	Token      string   `json:"token"`
	EmployeeID string   `json:"employee_id"`
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Screens    []string `json:"screens"`
}

// ChangePasswordRequest updates the caller's own credential.
type ChangePasswordRequest struct {
	Current string `json:"current" validate:"required"`
	New     string `json:"new" validate:"required,min=4"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses. The credential hash
// never leaves the server.
type EmployeeDTO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Screens []string `json:"screens,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID       string `json:"id" validate:"required,len=4"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password"`
	Role     string `json:"role" validate:"required,oneof=Admin User"`
	Balance  *int   `json:"balance" validate:"omitempty,min=0"`
}

// UpdateEmployeeRequest edits an employee. Absent fields are left unchanged.
type UpdateEmployeeRequest struct {
	NewID    string `json:"new_id" validate:"omitempty,len=4"`
	Name     string `json:"name"`
	Role     string `json:"role" validate:"omitempty,oneof=Admin User"`
	Password string `json:"password"`
}

// =============================================================================
// SCHEDULE
// =============================================================================

// AssignRequest schedules a category over a date range. End defaults to
// Start for single-day assignments.
type AssignRequest struct {
	EmployeeID  string `json:"employee_id" validate:"required,len=4"`
	Category    string `json:"category" validate:"required,oneof=wfh annual_leave seminar"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end"`
	SeminarName string `json:"seminar_name"`
}

// UnassignRequest removes a category over a date range.
type UnassignRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,len=4"`
	Category   string `json:"category" validate:"required,oneof=wfh annual_leave seminar"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end"`
}

// RecordDTO is one attendance record.
type RecordDTO struct {
	EmployeeID  string `json:"employee_id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	SeminarName string `json:"seminar_name,omitempty"`
}

// ConflictDTO reports one already-occupied day in a rejected assignment.
type ConflictDTO struct {
	Date   string `json:"date"`
	Detail string `json:"detail"`
}

// =============================================================================
// LEDGER
// =============================================================================

// BalanceDTO is one employee's leave accounting.
type BalanceDTO struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name,omitempty"`
	Balance    int    `json:"balance"`
	Scheduled  int    `json:"scheduled"`
	Remaining  int    `json:"remaining"`
}

// SetBalanceRequest replaces an employee's allowance.
type SetBalanceRequest struct {
	Balance int `json:"balance" validate:"min=0"`
}

// =============================================================================
// OCCUPANCY
// =============================================================================

// OccupancyDTO is one day's office breakdown. Percentages are of total
// headcount, one decimal place, serialized as strings to avoid float drift.
type OccupancyDTO struct {
	Date               string `json:"date"`
	WFH                int    `json:"wfh"`
	AnnualLeave        int    `json:"annual_leave"`
	Seminar            int    `json:"seminar"`
	OutOfOffice        int    `json:"out_of_office"`
	InOffice           int    `json:"in_office"`
	WFHPercent         string `json:"wfh_percent"`
	AnnualLeavePercent string `json:"annual_leave_percent"`
	SeminarPercent     string `json:"seminar_percent"`
}

// =============================================================================
// PERMISSIONS
// =============================================================================

// RoleScreensRequest replaces a role's screen list.
type RoleScreensRequest struct {
	Screens []string `json:"screens" validate:"required"`
}

// OverrideRequest replaces an employee's screen override. An empty list is a
// valid override that grants nothing.
type OverrideRequest struct {
	Screens []string `json:"screens" validate:"required"`
}

// ErrorResponse is the error envelope for all non-2xx responses.
type ErrorResponse struct {
	Error     string        `json:"error"`
	Details   string        `json:"details,omitempty"`
	Conflicts []ConflictDTO `json:"conflicts,omitempty"`
}

// =============================================================================
// DOMAIN CONVERSIONS
// =============================================================================

func toEmployeeDTO(emp scheduler.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:   string(emp.ID),
		Name: emp.Name,
		Role: string(emp.Role),
	}
	if emp.ScreenOverride != nil {
		dto.Screens = screenNames(emp.ScreenOverride)
	}
	return dto
}

func toRecordDTO(rec scheduler.Record) RecordDTO {
	return RecordDTO{
		EmployeeID:  string(rec.EmployeeID),
		Date:        rec.Date.String(),
		Category:    string(rec.Category),
		Status:      rec.Status,
		SeminarName: rec.SeminarName,
	}
}

func toOccupancyDTO(day scheduler.DayOccupancy) OccupancyDTO {
	return OccupancyDTO{
		Date:               day.Date.String(),
		WFH:                day.WFH,
		AnnualLeave:        day.AnnualLeave,
		Seminar:            day.Seminar,
		OutOfOffice:        day.OutOfOffice,
		InOffice:           day.InOffice,
		WFHPercent:         day.WFHPercent.String(),
		AnnualLeavePercent: day.AnnualLeavePercent.String(),
		SeminarPercent:     day.SeminarPercent.String(),
	}
}

func screenNames(screens []scheduler.Screen) []string {
	out := make([]string, len(screens))
	for i, s := range screens {
		out[i] = string(s)
	}
	return out
}

func toScreens(names []string) []scheduler.Screen {
	out := make([]scheduler.Screen, len(names))
	for i, n := range names {
		out[i] = scheduler.Screen(n)
	}
	return out
}
