/*
directory.go - Employee directory management

PURPOSE:
  Add, update, and remove employees, keeping the dependent stores
  consistent. Attendance records and ledger rows are keyed by the immutable
  4-character employee ID, so a name change is a directory-only edit; an ID
  change or a deletion cascades across the three attendance stores and the
  ledger.

CASCADES:
  When the backend implements CascadeStore, Rekey/Purge run through it so
  the backend can use its best atomicity mechanism (SQL transaction,
  staged-rename journal). Otherwise the cascade is a plain store-by-store
  rewrite - correct when uninterrupted, partial after a crash, which is the
  documented flat-file limitation.
*/
package scheduler

import (
	"context"
	"strings"
)

// =============================================================================
// DIRECTORY
// =============================================================================

// Directory manages employee identity records and their cascades.
type Directory struct {
	store Stores
}

// NewDirectory creates a Directory over the given backend.
func NewDirectory(store Stores) *Directory {
	return &Directory{store: store}
}

// List returns every employee.
func (d *Directory) List(ctx context.Context) ([]Employee, error) {
	return d.store.LoadEmployees(ctx)
}

// Get returns one employee by ID.
func (d *Directory) Get(ctx context.Context, id EmployeeID) (*Employee, error) {
	employees, err := d.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		if employees[i].ID == id {
			return &employees[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "employee", Key: string(id)}
}

// GetByName returns one employee by display name. Names are unique.
func (d *Directory) GetByName(ctx context.Context, name string) (*Employee, error) {
	employees, err := d.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		if employees[i].Name == name {
			return &employees[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "employee", Key: name}
}

// Add creates a new employee and seeds their ledger row.
func (d *Directory) Add(ctx context.Context, emp Employee, balance int) error {
	if err := validateEmployee(emp); err != nil {
		return err
	}
	if balance < 0 {
		return &ValidationError{Field: "balance", Reason: "balance cannot be negative"}
	}

	employees, err := d.store.LoadEmployees(ctx)
	if err != nil {
		return err
	}
	for _, existing := range employees {
		if existing.ID == emp.ID {
			return &ValidationError{Field: "id", Reason: "employee id " + string(emp.ID) + " already exists"}
		}
		if existing.Name == emp.Name {
			return &ValidationError{Field: "name", Reason: "employee name " + emp.Name + " already exists"}
		}
	}
	if err := d.store.SaveEmployees(ctx, append(employees, emp)); err != nil {
		return err
	}

	balances, err := d.store.LoadBalances(ctx)
	if err != nil {
		return err
	}
	balances[emp.ID] = balance
	return d.store.SaveBalances(ctx, balances)
}

// Update describes an employee edit. Zero-valued fields are left unchanged;
// ClearOverride removes an existing screen override.
type Update struct {
	NewID          EmployeeID
	Name           string
	Role           Role
	CredentialHash string
	ScreenOverride []Screen
	ClearOverride  bool
}

// Apply updates an employee. An ID change cascades into the attendance
// stores and the ledger.
func (d *Directory) Apply(ctx context.Context, id EmployeeID, up Update) error {
	employees, err := d.store.LoadEmployees(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range employees {
		if employees[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: "employee", Key: string(id)}
	}

	next := employees[idx]
	if up.Name != "" {
		next.Name = up.Name
	}
	if up.Role != "" {
		if up.Role != RoleAdmin && up.Role != RoleUser {
			return &ValidationError{Field: "role", Reason: "unknown role " + string(up.Role)}
		}
		next.Role = up.Role
	}
	if up.CredentialHash != "" {
		next.CredentialHash = up.CredentialHash
	}
	if up.ClearOverride {
		next.ScreenOverride = nil
	} else if up.ScreenOverride != nil {
		next.ScreenOverride = up.ScreenOverride
	}
	rekey := up.NewID != "" && up.NewID != id
	if rekey {
		if err := up.NewID.Validate(); err != nil {
			return err
		}
		next.ID = up.NewID
	}

	// Duplicate checks against the rest of the directory.
	for i, existing := range employees {
		if i == idx {
			continue
		}
		if existing.ID == next.ID {
			return &ValidationError{Field: "id", Reason: "employee id " + string(next.ID) + " already exists"}
		}
		if existing.Name == next.Name {
			return &ValidationError{Field: "name", Reason: "employee name " + next.Name + " already exists"}
		}
	}

	employees[idx] = next
	if err := d.store.SaveEmployees(ctx, employees); err != nil {
		return err
	}
	if rekey {
		return d.rekey(ctx, id, next.ID)
	}
	return nil
}

// Remove deletes an employee and cascades the delete into every attendance
// store and the ledger.
func (d *Directory) Remove(ctx context.Context, id EmployeeID) error {
	employees, err := d.store.LoadEmployees(ctx)
	if err != nil {
		return err
	}
	kept := employees[:0:0]
	found := false
	for _, emp := range employees {
		if emp.ID == id {
			found = true
			continue
		}
		kept = append(kept, emp)
	}
	if !found {
		return &NotFoundError{Kind: "employee", Key: string(id)}
	}
	if err := d.store.SaveEmployees(ctx, kept); err != nil {
		return err
	}
	return d.purge(ctx, id)
}

// =============================================================================
// CASCADE PLUMBING
// =============================================================================

func (d *Directory) rekey(ctx context.Context, from, to EmployeeID) error {
	if cs, ok := d.store.(CascadeStore); ok {
		return cs.Rekey(ctx, from, to)
	}
	for _, category := range Categories() {
		records, err := d.store.LoadRecords(ctx, category)
		if err != nil {
			return err
		}
		changed := false
		for i := range records {
			if records[i].EmployeeID == from {
				records[i].EmployeeID = to
				changed = true
			}
		}
		if changed {
			if err := d.store.SaveRecords(ctx, category, records); err != nil {
				return err
			}
		}
	}
	balances, err := d.store.LoadBalances(ctx)
	if err != nil {
		return err
	}
	if b, ok := balances[from]; ok {
		delete(balances, from)
		balances[to] = b
		return d.store.SaveBalances(ctx, balances)
	}
	return nil
}

func (d *Directory) purge(ctx context.Context, id EmployeeID) error {
	if cs, ok := d.store.(CascadeStore); ok {
		return cs.Purge(ctx, id)
	}
	for _, category := range Categories() {
		records, err := d.store.LoadRecords(ctx, category)
		if err != nil {
			return err
		}
		kept := records[:0:0]
		for _, rec := range records {
			if rec.EmployeeID != id {
				kept = append(kept, rec)
			}
		}
		if len(kept) != len(records) {
			if err := d.store.SaveRecords(ctx, category, kept); err != nil {
				return err
			}
		}
	}
	balances, err := d.store.LoadBalances(ctx)
	if err != nil {
		return err
	}
	if _, ok := balances[id]; ok {
		delete(balances, id)
		return d.store.SaveBalances(ctx, balances)
	}
	return nil
}

func validateEmployee(emp Employee) error {
	if err := emp.ID.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(emp.Name) == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if emp.Role != RoleAdmin && emp.Role != RoleUser {
		return &ValidationError{Field: "role", Reason: "unknown role " + string(emp.Role)}
	}
	if emp.CredentialHash == "" {
		return &ValidationError{Field: "credential", Reason: "credential hash is required"}
	}
	return nil
}
