// Package memory provides an in-memory Stores implementation for tests and
// development. Data is copied on every load/save so callers never alias the
// backing slices, mirroring the reload-from-disk behavior of the file
// backend.
package memory

import (
	"context"
	"sync"

	"github.com/mkomis20/Team-Scheduler/scheduler"
)

// Store implements scheduler.Stores and scheduler.CascadeStore in memory.
type Store struct {
	mu        sync.RWMutex
	employees []scheduler.Employee
	records   map[scheduler.Category][]scheduler.Record
	balances  map[scheduler.EmployeeID]int
	registry  scheduler.RoleRegistry
}

// New creates an empty in-memory store with the default role registry.
func New() *Store {
	return &Store{
		records:  make(map[scheduler.Category][]scheduler.Record),
		balances: make(map[scheduler.EmployeeID]int),
		registry: scheduler.DefaultRegistry(),
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) LoadEmployees(_ context.Context) ([]scheduler.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scheduler.Employee, len(s.employees))
	copy(out, s.employees)
	return out, nil
}

func (s *Store) SaveEmployees(_ context.Context, employees []scheduler.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = make([]scheduler.Employee, len(employees))
	copy(s.employees, employees)
	return nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (s *Store) LoadRecords(_ context.Context, category scheduler.Category) ([]scheduler.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scheduler.Record, len(s.records[category]))
	copy(out, s.records[category])
	return out, nil
}

func (s *Store) SaveRecords(_ context.Context, category scheduler.Category, records []scheduler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]scheduler.Record, len(records))
	copy(next, records)
	s.records[category] = next
	return nil
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *Store) LoadBalances(_ context.Context) (map[scheduler.EmployeeID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[scheduler.EmployeeID]int, len(s.balances))
	for id, b := range s.balances {
		out[id] = b
	}
	return out, nil
}

func (s *Store) SaveBalances(_ context.Context, balances map[scheduler.EmployeeID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[scheduler.EmployeeID]int, len(balances))
	for id, b := range balances {
		next[id] = b
	}
	s.balances = next
	return nil
}

// =============================================================================
// REGISTRY
// =============================================================================

func (s *Store) LoadRegistry(_ context.Context) (scheduler.RoleRegistry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(scheduler.RoleRegistry, len(s.registry))
	for role, screens := range s.registry {
		copied := make([]scheduler.Screen, len(screens))
		copy(copied, screens)
		out[role] = copied
	}
	return out, nil
}

func (s *Store) SaveRegistry(_ context.Context, registry scheduler.RoleRegistry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(scheduler.RoleRegistry, len(registry))
	for role, screens := range registry {
		copied := make([]scheduler.Screen, len(screens))
		copy(copied, screens)
		next[role] = copied
	}
	s.registry = next
	return nil
}

// =============================================================================
// CASCADES
// =============================================================================

// Rekey rewrites attendance records and the ledger row under a new ID in one
// critical section.
func (s *Store) Rekey(_ context.Context, from, to scheduler.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for category, records := range s.records {
		for i := range records {
			if records[i].EmployeeID == from {
				records[i].EmployeeID = to
			}
		}
		s.records[category] = records
	}
	if b, ok := s.balances[from]; ok {
		delete(s.balances, from)
		s.balances[to] = b
	}
	return nil
}

// Purge drops every attendance record and the ledger row for an ID.
func (s *Store) Purge(_ context.Context, id scheduler.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for category, records := range s.records {
		kept := records[:0:0]
		for _, rec := range records {
			if rec.EmployeeID != id {
				kept = append(kept, rec)
			}
		}
		s.records[category] = kept
	}
	delete(s.balances, id)
	return nil
}
