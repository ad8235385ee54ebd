/*
Package scheduler provides the core attendance and leave tracking engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking a
  mutually exclusive attendance status (work-from-home, annual leave, or
  seminar) per employee per calendar day, together with the per-employee
  leave balance ledger and the permission model used by the UI layer.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: which kind of attendance a record represents
  - Record: a single (employee, date, category) attendance entry
  - Employee: a directory entry with credential, role, and optional
    per-screen permission override
  - RoleRegistry: role -> default screen set mapping

DESIGN PRINCIPLES:
  1. Mutual exclusivity: at most one Record per (employee, date) across
     every category - enforced by the Engine, never assumed.
  2. Derived values: "remaining leave" is always computed from the ledger
     balance and the scheduled annual-leave count, never stored.
  3. Type safety: EmployeeID, Category, Role, and Screen are distinct
     types so call sites cannot mix them up.

SEE ALSO:
  - engine.go: conflict resolution on assign/remove
  - ledger.go: leave balance bookkeeping
  - permissions.go: effective screen resolution
  - occupancy.go: daily occupancy aggregation
*/
package scheduler

import "fmt"

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EmployeeID is the immutable surrogate key for an employee. IDs are exactly
// four characters; names are display-only and renameable.
type EmployeeID string

// EmployeeIDLength is the required length of an EmployeeID.
const EmployeeIDLength = 4

// Validate checks the fixed-length ID rule.
func (id EmployeeID) Validate() error {
	if len(id) != EmployeeIDLength {
		return &ValidationError{
			Field:  "id",
			Reason: fmt.Sprintf("employee id must be exactly %d characters, got %q", EmployeeIDLength, string(id)),
		}
	}
	return nil
}

// =============================================================================
// CATEGORY - The three mutually exclusive attendance kinds
// =============================================================================

type Category string

const (
	CategoryWFH         Category = "wfh"
	CategoryAnnualLeave Category = "annual_leave"
	CategorySeminar     Category = "seminar"
)

// Categories lists every category in a stable order. Cross-store lookups and
// aggregation iterate this slice so all stores are always consulted.
func Categories() []Category {
	return []Category{CategoryWFH, CategoryAnnualLeave, CategorySeminar}
}

// StatusLabel is the human-readable status stored on each record, preserved
// from the legacy files ("WFH", "Annual Leave", "Seminar").
func (c Category) StatusLabel() string {
	switch c {
	case CategoryWFH:
		return "WFH"
	case CategoryAnnualLeave:
		return "Annual Leave"
	case CategorySeminar:
		return "Seminar"
	}
	return string(c)
}

// DisplayName is the long form used in conflict details.
func (c Category) DisplayName() string {
	if c == CategoryWFH {
		return "Work From Home"
	}
	return c.StatusLabel()
}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWFH, CategoryAnnualLeave, CategorySeminar:
		return true
	}
	return false
}

// =============================================================================
// RECORD - One attendance entry
// =============================================================================

// Record is a single attendance entry. The Engine guarantees that for any
// (EmployeeID, Date) pair at most one Record exists across all categories.
type Record struct {
	EmployeeID EmployeeID
	Date       Date
	Category   Category
	Status     string // status label, e.g. "WFH"

	// SeminarName is set only for CategorySeminar records.
	SeminarName string
}

// Detail renders the record the way conflicts are reported to users:
// "Work From Home", "Annual Leave", or "Seminar: <name>".
func (r Record) Detail() string {
	if r.Category == CategorySeminar && r.SeminarName != "" {
		return "Seminar: " + r.SeminarName
	}
	return r.Category.DisplayName()
}

// =============================================================================
// EMPLOYEE - Directory entry
// =============================================================================

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Screen names a navigable UI screen. The set of screens an identity may
// reach is resolved by the Permission Resolver, never hardcoded in the UI.
type Screen string

const (
	ScreenDashboard       Screen = "Dashboard"
	ScreenReports         Screen = "Reports"
	ScreenWFH             Screen = "Schedule WFH"
	ScreenAnnualLeave     Screen = "Schedule Annual Leave"
	ScreenSeminars        Screen = "Schedule Seminars"
	ScreenManageEmployees Screen = "Manage Employees"
)

// AllScreens lists every known screen in menu order.
func AllScreens() []Screen {
	return []Screen{
		ScreenDashboard,
		ScreenReports,
		ScreenWFH,
		ScreenAnnualLeave,
		ScreenSeminars,
		ScreenManageEmployees,
	}
}

// Employee is one directory entry. The leave balance is NOT stored here - it
// lives in the ledger so balance edits never risk corrupting identity fields.
type Employee struct {
	ID             EmployeeID
	Name           string
	CredentialHash string
	Role           Role

	// ScreenOverride, when non-nil, replaces the role's registry set
	// verbatim. An empty non-nil slice is a valid "no access" state.
	ScreenOverride []Screen
}

// =============================================================================
// ROLE REGISTRY - role -> default screen set
// =============================================================================

// RoleRegistry maps each role to its default ordered screen set. Roles absent
// from the registry resolve to no screens (fail closed).
type RoleRegistry map[Role][]Screen

// DefaultRegistry is the registry seeded for fresh installations: admins see
// every screen, users see only the dashboard.
func DefaultRegistry() RoleRegistry {
	return RoleRegistry{
		RoleAdmin: AllScreens(),
		RoleUser:  {ScreenDashboard},
	}
}

// Screens returns the registered set for a role, or nil when absent.
func (rr RoleRegistry) Screens(role Role) []Screen {
	return rr[role]
}

// =============================================================================
// SESSION IDENTITY - Ephemeral, produced by the auth layer
// =============================================================================

// Identity is the resolved login handed to the Permission Resolver. It is
// never persisted.
type Identity struct {
	EmployeeID EmployeeID
	Role       Role
}
