/*
store.go - Persistence interfaces for the scheduler core

PURPOSE:
  Defines the boundary between domain logic and storage. The three
  attendance stores, the employee directory, the leave ledger, and the role
  registry are persisted independently; implementations decide the medium.

WHOLE-STORE SEMANTICS:
  The canonical backend is a set of flat files, and the system is
  single-threaded request-per-interaction: every query reloads from the
  persisted stores and every batch commit replaces one store in a single
  atomic write. The interfaces mirror that - Load returns the full store,
  Save replaces it. Implementations MUST make Save atomic per store:
  either the new content is fully visible or the old content is untouched.

CASCADES:
  An employee ID change or deletion touches all three attendance stores
  plus the ledger. There is no cross-store atomicity guarantee in the
  base interfaces; backends that can do better (a SQL transaction, or a
  staged-rename journal) implement the optional CascadeStore capability
  and the directory service will prefer it.

IMPLEMENTATIONS:
  - store/file:   canonical flat-file JSON backend with schema migration
  - store/sqlite: SQLite backend
  - store/memory: in-memory backend for tests

SEE ALSO:
  - engine.go, ledger.go, directory.go, permissions.go: consumers
*/
package scheduler

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// DirectoryStore persists employee identity records.
type DirectoryStore interface {
	// LoadEmployees returns every directory entry.
	LoadEmployees(ctx context.Context) ([]Employee, error)

	// SaveEmployees atomically replaces the directory.
	SaveEmployees(ctx context.Context, employees []Employee) error
}

// AttendanceStore persists the three per-category record stores. Each
// category is an independent store; mutual exclusivity across categories is
// the Engine's job, not the store's.
type AttendanceStore interface {
	// LoadRecords returns every record in one category store.
	LoadRecords(ctx context.Context, category Category) ([]Record, error)

	// SaveRecords atomically replaces one category store. Batch assignment
	// commits through this so an all-or-nothing range is a single write.
	SaveRecords(ctx context.Context, category Category, records []Record) error
}

// LedgerStore persists per-employee leave balances, independently of the
// directory.
type LedgerStore interface {
	// LoadBalances returns every ledger row. Employees without a row default
	// to DefaultLeaveBalance at the service layer, not here.
	LoadBalances(ctx context.Context) (map[EmployeeID]int, error)

	// SaveBalances atomically replaces the ledger.
	SaveBalances(ctx context.Context, balances map[EmployeeID]int) error
}

// RegistryStore persists the role -> screen set registry.
type RegistryStore interface {
	// LoadRegistry returns the registry. A missing or unreadable registry
	// falls back to DefaultRegistry inside the implementation.
	LoadRegistry(ctx context.Context) (RoleRegistry, error)

	// SaveRegistry atomically replaces the registry.
	SaveRegistry(ctx context.Context, registry RoleRegistry) error
}

// Stores bundles every persistence concern. The services in this package
// take the bundle so one backend serves the whole system.
type Stores interface {
	DirectoryStore
	AttendanceStore
	LedgerStore
	RegistryStore
}

// =============================================================================
// OPTIONAL CAPABILITIES
// =============================================================================

// CascadeStore is an optional capability for multi-store cascades. Backends
// that implement it make Rekey and Purge as close to atomic as the medium
// allows (a SQL transaction, or staged temp files with a recovery journal).
// Without it the directory service falls back to store-by-store load/save,
// which can leave a partial cascade after a crash.
type CascadeStore interface {
	// Rekey rewrites every attendance record and ledger row from one
	// employee ID to another.
	Rekey(ctx context.Context, from, to EmployeeID) error

	// Purge deletes every attendance record and the ledger row for an ID.
	Purge(ctx context.Context, id EmployeeID) error
}
