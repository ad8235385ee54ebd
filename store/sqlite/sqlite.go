/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements scheduler.Stores and scheduler.CascadeStore using SQLite. The
  flat-file backend is the canonical one; this backend exists for
  deployments that want real transactions and a single data file.

KEY TABLES:
  employees:        Directory records (immutable surrogate IDs)
  attendance:       All three record categories in one table
  leave_balances:   Ledger rows (absent row means the default balance)
  role_permissions: Screen lists per role

INDEXES:
  idx_unique_employee_day enforces at the storage layer what the engine
  enforces at the domain layer: one attendance record per employee per
  date, regardless of category.

CASCADES:
  Rekey and Purge run in a single SQL transaction, which is the whole
  point of offering this backend next to the flat-file one.

CONCURRENCY:
  Uses sync.RWMutex on top of SQLite's own locking; the save operations
  are replace-the-store, so two concurrent saves must not interleave.

WAL MODE:
  Opened with WAL so readers do not block the single writer.

USAGE:
  store, err := sqlite.New("./data/scheduler.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - scheduler/store.go: Interface definitions
  - store/file: canonical flat-file backend with schema migration
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mkomis20/Team-Scheduler/scheduler"
)

// Store implements scheduler.Stores using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.seedRegistry(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		credential_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		screens_json TEXT,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		status TEXT NOT NULL,
		seminar_name TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	);

	-- One record per employee per day, whatever the category.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_employee_day
		ON attendance(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_category
		ON attendance(category);
	CREATE INDEX IF NOT EXISTS idx_attendance_date
		ON attendance(date);

	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS role_permissions (
		role TEXT PRIMARY KEY,
		screens_json TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// seedRegistry installs the default role registry on a fresh database.
func (s *Store) seedRegistry() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM role_permissions").Scan(&count); err != nil {
		return fmt.Errorf("failed to inspect role_permissions: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.SaveRegistry(context.Background(), scheduler.DefaultRegistry())
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) LoadEmployees(ctx context.Context) ([]scheduler.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, credential_hash, role, screens_json FROM employees ORDER BY position",
	)
	if err != nil {
		return nil, storeErr("employees", "load", err)
	}
	defer rows.Close()

	var employees []scheduler.Employee
	for rows.Next() {
		var emp scheduler.Employee
		var screensJSON sql.NullString
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.CredentialHash, &emp.Role, &screensJSON); err != nil {
			return nil, storeErr("employees", "load", err)
		}
		if screensJSON.Valid {
			var screens []scheduler.Screen
			if err := json.Unmarshal([]byte(screensJSON.String), &screens); err != nil {
				return nil, storeErr("employees", "load", err)
			}
			if screens == nil {
				screens = []scheduler.Screen{}
			}
			emp.ScreenOverride = screens
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("employees", "load", err)
	}
	return employees, nil
}

func (s *Store) SaveEmployees(ctx context.Context, employees []scheduler.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, "employees", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM employees"); err != nil {
			return err
		}
		for i, emp := range employees {
			var screensJSON any
			if emp.ScreenOverride != nil {
				data, err := json.Marshal(emp.ScreenOverride)
				if err != nil {
					return err
				}
				screensJSON = string(data)
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO employees (id, name, credential_hash, role, screens_json, position) VALUES (?, ?, ?, ?, ?, ?)",
				string(emp.ID), emp.Name, emp.CredentialHash, string(emp.Role), screensJSON, i,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (s *Store) LoadRecords(ctx context.Context, category scheduler.Category) ([]scheduler.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT employee_id, date, status, seminar_name FROM attendance WHERE category = ? ORDER BY position",
		string(category),
	)
	if err != nil {
		return nil, storeErr("attendance", "load", err)
	}
	defer rows.Close()

	var records []scheduler.Record
	for rows.Next() {
		var rec scheduler.Record
		var dateStr string
		if err := rows.Scan(&rec.EmployeeID, &dateStr, &rec.Status, &rec.SeminarName); err != nil {
			return nil, storeErr("attendance", "load", err)
		}
		date, perr := scheduler.ParseDate(dateStr)
		if perr != nil {
			return nil, storeErr("attendance", "load", perr)
		}
		rec.Date = date
		rec.Category = category
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("attendance", "load", err)
	}
	return records, nil
}

func (s *Store) SaveRecords(ctx context.Context, category scheduler.Category, records []scheduler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, "attendance", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE category = ?", string(category)); err != nil {
			return err
		}
		for i, rec := range records {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO attendance (employee_id, date, category, status, seminar_name, position) VALUES (?, ?, ?, ?, ?, ?)",
				string(rec.EmployeeID), rec.Date.String(), string(category), rec.Status, rec.SeminarName, i,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *Store) LoadBalances(ctx context.Context) (map[scheduler.EmployeeID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT employee_id, balance FROM leave_balances")
	if err != nil {
		return nil, storeErr("leave_balances", "load", err)
	}
	defer rows.Close()

	balances := make(map[scheduler.EmployeeID]int)
	for rows.Next() {
		var id string
		var balance int
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, storeErr("leave_balances", "load", err)
		}
		balances[scheduler.EmployeeID(id)] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("leave_balances", "load", err)
	}
	return balances, nil
}

func (s *Store) SaveBalances(ctx context.Context, balances map[scheduler.EmployeeID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, "leave_balances", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM leave_balances"); err != nil {
			return err
		}
		for id, balance := range balances {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO leave_balances (employee_id, balance) VALUES (?, ?)",
				string(id), balance,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// REGISTRY
// =============================================================================

func (s *Store) LoadRegistry(ctx context.Context) (scheduler.RoleRegistry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT role, screens_json FROM role_permissions")
	if err != nil {
		return nil, storeErr("role_permissions", "load", err)
	}
	defer rows.Close()

	registry := make(scheduler.RoleRegistry)
	for rows.Next() {
		var role, screensJSON string
		if err := rows.Scan(&role, &screensJSON); err != nil {
			return nil, storeErr("role_permissions", "load", err)
		}
		var screens []scheduler.Screen
		if err := json.Unmarshal([]byte(screensJSON), &screens); err != nil {
			return nil, storeErr("role_permissions", "load", err)
		}
		registry[scheduler.Role(role)] = screens
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("role_permissions", "load", err)
	}
	if len(registry) == 0 {
		return scheduler.DefaultRegistry(), nil
	}
	return registry, nil
}

func (s *Store) SaveRegistry(ctx context.Context, registry scheduler.RoleRegistry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, "role_permissions", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions"); err != nil {
			return err
		}
		for role, screens := range registry {
			if screens == nil {
				screens = []scheduler.Screen{}
			}
			data, err := json.Marshal(screens)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO role_permissions (role, screens_json) VALUES (?, ?)",
				string(role), string(data),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// CASCADES
// =============================================================================

// Rekey rewrites every attendance record and ledger row from one employee ID
// to another in a single transaction.
func (s *Store) Rekey(ctx context.Context, from, to scheduler.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, "attendance", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE attendance SET employee_id = ? WHERE employee_id = ?",
			string(to), string(from),
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE leave_balances SET employee_id = ? WHERE employee_id = ?",
			string(to), string(from),
		)
		return err
	})
}

// Purge deletes every attendance record and the ledger row for an ID in a
// single transaction.
func (s *Store) Purge(ctx context.Context, id scheduler.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, "attendance", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM attendance WHERE employee_id = ?", string(id),
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"DELETE FROM leave_balances WHERE employee_id = ?", string(id),
		)
		return err
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, store string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(store, "save", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return storeErr(store, "save", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(store, "save", err)
	}
	return nil
}

func storeErr(store, op string, err error) error {
	return &scheduler.PersistenceError{Store: store, Op: op, Err: err}
}

var _ scheduler.Stores = (*Store)(nil)
var _ scheduler.CascadeStore = (*Store)(nil)
