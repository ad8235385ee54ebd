/*
Package file provides the canonical flat-file JSON backend.

PURPOSE:
  Implements scheduler.Stores over a data directory of JSON files, one per
  store:

    employees.json            directory
    wfh_records.json          attendance (work from home)
    annual_leave_records.json attendance (annual leave)
    seminar_records.json      attendance (seminar)
    leave_balances.json       ledger
    role_permissions.json     role registry

ATOMIC WRITES:
  Every save serializes to a temp file in the same directory, syncs it, and
  renames it over the canonical path. A failed write discards the temp file
  and leaves the canonical file untouched; no partially written file is
  ever visible at the canonical path.

NO CACHING:
  Every load rereads from disk. The system is single-threaded
  request-per-interaction at flat-file scale, so correctness beats speed:
  there is no in-memory state to drift from the files.

SCHEMA VERSIONS:
  Each file carries a schema-version envelope. Legacy unversioned shapes
  are detected by field shape and upgraded on load; Open persists the
  upgraded form so each file converges after one load+save cycle. See
  migrate.go.

READ-SIDE FALLBACKS:
  The ledger and registry are optional stores: unreadable content falls
  back to documented defaults (no rows; DefaultRegistry). A corrupt
  directory degrades to an empty directory rather than crashing - a
  deliberate recovery policy inherited from the original system.

SEE ALSO:
  - migrate.go: shape detection and upgrade steps
  - journal.go: recovery journal for multi-file cascades
*/
package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/mkomis20/Team-Scheduler/scheduler"
)

const (
	employeesFile   = "employees.json"
	ledgerFile      = "leave_balances.json"
	registryFile    = "role_permissions.json"
	wfhFile         = "wfh_records.json"
	annualLeaveFile = "annual_leave_records.json"
	seminarFile     = "seminar_records.json"
)

// Store implements scheduler.Stores over a directory of JSON files.
type Store struct {
	dir string

	// bootstrapAdmin, when set, names the account promoted to Admin during
	// legacy migration. Empty means "first account becomes Admin".
	bootstrapAdmin string
}

// Option configures a Store.
type Option func(*Store)

// WithBootstrapAdmin names the account promoted to Admin when migrating a
// legacy directory that has no role fields. Without it, the first account in
// the file becomes Admin.
func WithBootstrapAdmin(name string) Option {
	return func(s *Store) { s.bootstrapAdmin = name }
}

// Open prepares the data directory: creates it if needed, completes any
// interrupted cascade recorded in the journal, and runs schema migration so
// every file is at the current version before anything else reads it.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &scheduler.PersistenceError{Store: "data dir", Op: "load", Err: err}
	}
	if err := s.replayJournal(); err != nil {
		return nil, err
	}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

func categoryFile(category scheduler.Category) string {
	switch category {
	case scheduler.CategoryWFH:
		return wfhFile
	case scheduler.CategoryAnnualLeave:
		return annualLeaveFile
	case scheduler.CategorySeminar:
		return seminarFile
	}
	return string(category) + "_records.json"
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) LoadEmployees(_ context.Context) ([]scheduler.Employee, error) {
	raw, err := s.read(employeesFile)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	dir, _, _, err := decodeDirectory(raw, s.bootstrapAdmin)
	if err != nil {
		// Degraded fallback: a corrupt directory reads as empty rather than
		// taking the whole system down.
		log.Printf("warning: %s unreadable (%v), continuing with empty directory", employeesFile, err)
		return nil, nil
	}
	return dir, nil
}

func (s *Store) SaveEmployees(_ context.Context, employees []scheduler.Employee) error {
	return s.write(employeesFile, encodeDirectory(employees))
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (s *Store) LoadRecords(ctx context.Context, category scheduler.Category) ([]scheduler.Record, error) {
	raw, err := s.read(categoryFile(category))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	nameToID, err := s.nameToID(ctx)
	if err != nil {
		return nil, err
	}
	records, _, err := decodeAttendance(raw, category, nameToID)
	if err != nil {
		return nil, &scheduler.PersistenceError{Store: categoryFile(category), Op: "load", Err: err}
	}
	return records, nil
}

func (s *Store) SaveRecords(_ context.Context, category scheduler.Category, records []scheduler.Record) error {
	return s.write(categoryFile(category), encodeAttendance(records))
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *Store) LoadBalances(_ context.Context) (map[scheduler.EmployeeID]int, error) {
	balances := make(map[scheduler.EmployeeID]int)
	raw, err := s.read(ledgerFile)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return balances, nil
	}
	decoded, _, err := decodeLedger(raw)
	if err != nil {
		// Optional store: fall back to defaults instead of failing reads.
		log.Printf("warning: %s unreadable (%v), using default balances", ledgerFile, err)
		return balances, nil
	}
	return decoded, nil
}

func (s *Store) SaveBalances(_ context.Context, balances map[scheduler.EmployeeID]int) error {
	return s.write(ledgerFile, encodeLedger(balances))
}

// =============================================================================
// REGISTRY
// =============================================================================

func (s *Store) LoadRegistry(_ context.Context) (scheduler.RoleRegistry, error) {
	raw, err := s.read(registryFile)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return scheduler.DefaultRegistry(), nil
	}
	registry, err := decodeRegistry(raw)
	if err != nil {
		log.Printf("warning: %s unreadable (%v), using default registry", registryFile, err)
		return scheduler.DefaultRegistry(), nil
	}
	return registry, nil
}

func (s *Store) SaveRegistry(_ context.Context, registry scheduler.RoleRegistry) error {
	return s.write(registryFile, encodeRegistry(registry))
}

// =============================================================================
// RAW FILE I/O
// =============================================================================

// read returns the file contents, or (nil, nil) when the file does not exist.
func (s *Store) read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &scheduler.PersistenceError{Store: name, Op: "load", Err: err}
	}
	return data, nil
}

// write marshals v and atomically replaces the canonical file. Any failure
// happens before the rename, so the canonical file is never half-written.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &scheduler.PersistenceError{Store: name, Op: "save", Err: err}
	}
	tmp, err := writeTemp(s.dir, name, data)
	if err != nil {
		return &scheduler.PersistenceError{Store: name, Op: "save", Err: err}
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return &scheduler.PersistenceError{Store: name, Op: "save", Err: err}
	}
	return nil
}

// writeTemp writes data to a fresh temp file in dir and returns its path.
// The temp file lives in the same directory as the target so the final
// rename stays on one filesystem.
func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// nameToID builds the display-name index used when upgrading legacy
// name-keyed attendance rows.
func (s *Store) nameToID(ctx context.Context) (map[string]scheduler.EmployeeID, error) {
	employees, err := s.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]scheduler.EmployeeID, len(employees))
	for _, emp := range employees {
		index[emp.Name] = emp.ID
	}
	return index, nil
}

var _ scheduler.Stores = (*Store)(nil)
var _ scheduler.CascadeStore = (*Store)(nil)
