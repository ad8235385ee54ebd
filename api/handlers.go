/*
handlers.go - HTTP API handlers for the attendance scheduler

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/login                  Exchange credentials for a token
    POST   /api/password               Change own password

  Employees:
    GET    /api/employees              List all employees
    POST   /api/employees              Create employee (admin)
    GET    /api/employees/{id}         Get employee details
    PUT    /api/employees/{id}         Edit employee (admin)
    DELETE /api/employees/{id}         Remove employee (admin)
    GET    /api/employees/{id}/balance Leave accounting for one employee
    PUT    /api/employees/{id}/balance Set allowance (admin)
    GET    /api/employees/{id}/screens Resolved screen access
    PUT    /api/employees/{id}/screens Set screen override (admin)
    DELETE /api/employees/{id}/screens Clear screen override (admin)
    GET    /api/employees/{id}/records Attendance in a date range

  Schedule:
    POST   /api/schedule               Assign a category over a range
    POST   /api/schedule/remove        Remove a category over a range
    GET    /api/schedule               Records for a category and range

  Reports:
    GET    /api/occupancy              Per-day office breakdown
    GET    /api/balances               Leave report for all employees
    GET    /api/reports/occupancy.xlsx Spreadsheet export
    GET    /api/reports/balances.xlsx  Spreadsheet export

  Roles:
    GET    /api/roles                  Role-to-screens registry
    PUT    /api/roles/{role}           Replace a role's screens (admin)

ERROR HANDLING:
  Domain errors map to HTTP status by sentinel:
  - 400: validation errors, malformed input
  - 401: missing/invalid token
  - 403: non-admin on admin routes
  - 404: unknown employee or role
  - 409: date conflicts (response lists every conflicting day)
  - 500: persistence failures

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Token issue/verify and middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mkomis20/Team-Scheduler/report"
	"github.com/mkomis20/Team-Scheduler/scheduler"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Directory  *scheduler.Directory
	Engine     *scheduler.Engine
	Ledger     *scheduler.Ledger
	Resolver   *scheduler.Resolver
	Aggregator *scheduler.Aggregator

	jwtSecret []byte
	validate  *validator.Validate
}

// NewHandler wires the domain services over one backend.
func NewHandler(store scheduler.Stores, jwtSecret []byte) *Handler {
	return &Handler{
		Directory:  scheduler.NewDirectory(store),
		Engine:     scheduler.NewEngine(store),
		Ledger:     scheduler.NewLedger(store),
		Resolver:   scheduler.NewResolver(store),
		Aggregator: scheduler.NewAggregator(store),
		jwtSecret:  jwtSecret,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// decode parses and validates a JSON request body.
func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login verifies credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Directory.GetByName(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid name or password", nil)
			return
		}
		writeDomainError(w, "Login failed", err)
		return
	}
	if !VerifyCredential(emp.CredentialHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid name or password", nil)
		return
	}

	token, err := h.issueToken(*emp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	screens, err := h.Resolver.Resolve(r.Context(), emp.ID)
	if err != nil {
		writeDomainError(w, "Failed to resolve screens", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:      token,
		EmployeeID: string(emp.ID),
		Name:       emp.Name,
		Role:       string(emp.Role),
		Screens:    screenNames(screens),
	})
}

// ChangePassword updates the caller's own credential, upgrading it to the
// current hash scheme.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req ChangePasswordRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Directory.Get(r.Context(), identity.EmployeeID)
	if err != nil {
		writeDomainError(w, "Failed to load account", err)
		return
	}
	if !VerifyCredential(emp.CredentialHash, req.Current) {
		writeError(w, http.StatusForbidden, "Current password is incorrect", nil)
		return
	}

	hash, err := HashCredential(req.New)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}
	if err := h.Directory.Apply(r.Context(), identity.EmployeeID, scheduler.Update{CredentialHash: hash}); err != nil {
		writeDomainError(w, "Failed to update password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Directory.List(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Directory.Get(r.Context(), scheduler.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee. Without a password the account gets
// the standard starter credential; without a balance, the default allowance.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	password := req.Password
	if password == "" {
		password = "1234"
	}
	hash, err := HashCredential(password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}
	balance := scheduler.DefaultLeaveBalance
	if req.Balance != nil {
		balance = *req.Balance
	}

	emp := scheduler.Employee{
		ID:             scheduler.EmployeeID(req.ID),
		Name:           req.Name,
		CredentialHash: hash,
		Role:           scheduler.Role(req.Role),
	}
	if err := h.Directory.Add(r.Context(), emp, balance); err != nil {
		writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// UpdateEmployee edits an employee. A new ID cascades through the attendance
// stores and the ledger; a new name is a display-only change.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	up := scheduler.Update{
		NewID: scheduler.EmployeeID(req.NewID),
		Name:  req.Name,
		Role:  scheduler.Role(req.Role),
	}
	if req.Password != "" {
		hash, err := HashCredential(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
			return
		}
		up.CredentialHash = hash
	}

	id := scheduler.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Directory.Apply(r.Context(), id, up); err != nil {
		writeDomainError(w, "Failed to update employee", err)
		return
	}
	current := id
	if up.NewID != "" {
		current = up.NewID
	}
	emp, err := h.Directory.Get(r.Context(), current)
	if err != nil {
		writeDomainError(w, "Failed to load employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// DeleteEmployee removes an employee and purges their records and ledger row.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := scheduler.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Directory.Remove(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// Assign schedules a category across a date range, all days or none.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rng, err := parseRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	err = h.Engine.AssignRange(r.Context(),
		scheduler.EmployeeID(req.EmployeeID), rng,
		scheduler.Category(req.Category),
		scheduler.AssignOptions{SeminarName: req.SeminarName})
	if err != nil {
		writeDomainError(w, "Failed to assign", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unassign removes a category across a date range. Absent records are not an
// error.
func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	var req UnassignRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rng, err := parseRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	err = h.Engine.RemoveRange(r.Context(),
		scheduler.EmployeeID(req.EmployeeID), rng,
		scheduler.Category(req.Category))
	if err != nil {
		writeDomainError(w, "Failed to remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRecords returns one category's records inside a date range.
// GET /api/schedule?category=wfh&from=2025-01-01&to=2025-01-31
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	category := scheduler.Category(r.URL.Query().Get("category"))
	if !category.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown category", nil)
		return
	}
	rng, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	records, err := h.Engine.RecordsInRange(r.Context(), category, rng)
	if err != nil {
		writeDomainError(w, "Failed to list records", err)
		return
	}
	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EmployeeRecords returns all of one employee's records inside a date range.
func (h *Handler) EmployeeRecords(w http.ResponseWriter, r *http.Request) {
	id := scheduler.EmployeeID(chi.URLParam(r, "id"))
	rng, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	var dtos []RecordDTO
	for _, day := range rng.Days() {
		rec, err := h.Engine.RecordOn(r.Context(), id, day)
		if err != nil {
			writeDomainError(w, "Failed to list records", err)
			return
		}
		if rec != nil {
			dtos = append(dtos, toRecordDTO(*rec))
		}
	}
	if dtos == nil {
		dtos = []RecordDTO{}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetBalance returns one employee's leave accounting.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := scheduler.EmployeeID(chi.URLParam(r, "id"))

	balance, err := h.Ledger.Balance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get balance", err)
		return
	}
	remaining, err := h.Ledger.Remaining(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		EmployeeID: string(id),
		Balance:    balance,
		Scheduled:  balance - remaining,
		Remaining:  remaining,
	})
}

// SetBalance replaces an employee's allowance.
func (h *Handler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req SetBalanceRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id := scheduler.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Ledger.SetBalance(r.Context(), id, req.Balance); err != nil {
		writeDomainError(w, "Failed to set balance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BalanceReport returns leave accounting for every employee.
func (h *Handler) BalanceReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Ledger.BalanceReport(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}
	dtos := make([]BalanceDTO, len(rows))
	for i, row := range rows {
		dtos[i] = BalanceDTO{
			EmployeeID: string(row.EmployeeID),
			Name:       row.Name,
			Balance:    row.Balance,
			Scheduled:  row.Scheduled,
			Remaining:  row.Remaining,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// OCCUPANCY HANDLERS
// =============================================================================

// Occupancy returns the per-day office breakdown for a date range. Days with
// no records are omitted.
func (h *Handler) Occupancy(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	days, err := h.Aggregator.Range(r.Context(), rng)
	if err != nil {
		writeDomainError(w, "Failed to compute occupancy", err)
		return
	}
	dtos := make([]OccupancyDTO, len(days))
	for i, day := range days {
		dtos[i] = toOccupancyDTO(day)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// OccupancyExport streams the occupancy breakdown as a spreadsheet.
func (h *Handler) OccupancyExport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	days, err := h.Aggregator.Range(r.Context(), rng)
	if err != nil {
		writeDomainError(w, "Failed to compute occupancy", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="occupancy.xlsx"`)
	if err := report.WriteOccupancy(w, days); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to write spreadsheet", err)
	}
}

// BalanceExport streams the leave report as a spreadsheet.
func (h *Handler) BalanceExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Ledger.BalanceReport(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="balances.xlsx"`)
	if err := report.WriteBalances(w, rows); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to write spreadsheet", err)
	}
}

// =============================================================================
// PERMISSION HANDLERS
// =============================================================================

// GetScreens returns an employee's resolved screen access.
func (h *Handler) GetScreens(w http.ResponseWriter, r *http.Request) {
	id := scheduler.EmployeeID(chi.URLParam(r, "id"))
	screens, err := h.Resolver.Resolve(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to resolve screens", err)
		return
	}
	writeJSON(w, http.StatusOK, screenNames(screens))
}

// SetOverride replaces an employee's screen override.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id := scheduler.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Resolver.SetOverride(r.Context(), id, toScreens(req.Screens)); err != nil {
		writeDomainError(w, "Failed to set override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearOverride removes an employee's screen override, reverting to the role
// registry.
func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	id := scheduler.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Resolver.SetOverride(r.Context(), id, nil); err != nil {
		writeDomainError(w, "Failed to clear override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRoles returns the role-to-screens registry.
func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	registry, err := h.Resolver.Registry(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to load registry", err)
		return
	}
	out := make(map[string][]string, len(registry))
	for role, screens := range registry {
		out[string(role)] = screenNames(screens)
	}
	writeJSON(w, http.StatusOK, out)
}

// SetRoleScreens replaces a role's screen list.
func (h *Handler) SetRoleScreens(w http.ResponseWriter, r *http.Request) {
	var req RoleScreensRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role := scheduler.Role(chi.URLParam(r, "role"))
	if err := h.Resolver.SetRoleScreens(r.Context(), role, toScreens(req.Screens)); err != nil {
		writeDomainError(w, "Failed to set role screens", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func parseRange(start, end string) (scheduler.DateRange, error) {
	from, err := scheduler.ParseDate(start)
	if err != nil {
		return scheduler.DateRange{}, err
	}
	if end == "" {
		return scheduler.SingleDay(from), nil
	}
	to, err := scheduler.ParseDate(end)
	if err != nil {
		return scheduler.DateRange{}, err
	}
	return scheduler.NewDateRange(from, to)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinels to HTTP status codes. Conflict
// responses list every rejected day.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var conflict *scheduler.ConflictError
	if errors.As(err, &conflict) {
		resp := ErrorResponse{Error: message, Details: conflict.Error()}
		for _, c := range conflict.Conflicts {
			resp.Conflicts = append(resp.Conflicts, ConflictDTO{Date: c.Date.String(), Detail: c.Detail})
		}
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scheduler.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, scheduler.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduler.ErrConflict):
		status = http.StatusConflict
	}
	writeError(w, status, message, err)
}
