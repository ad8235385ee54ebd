/*
engine.go - Conflict resolution for attendance assignment

PURPOSE:
  The Engine owns the one invariant everything else depends on: for any
  (employee, date) pair, at most one attendance record exists across the
  WFH, annual-leave, and seminar stores combined. Every assign goes through
  the Engine; the stores themselves never cross-check each other.

ALGORITHM (assign):
  1. The employee must exist in the directory.
  2. Look up any existing record for each requested date across ALL three
     stores, unconditionally.
  3. Existing record in a different category  -> conflict, no mutation.
     Existing record in the same category     -> idempotent replace
                                                 (e.g. renaming a seminar).
     No record                                -> insert.

BATCH SEMANTICS:
  A date-range assignment evaluates conflicts for EVERY date before
  committing anything. If any date conflicts, the whole batch is rejected
  with the full conflicting list and zero records are written. The commit
  itself is a single atomic store replacement, so a crash cannot leave a
  partial range behind.

REMOVE:
  Removing a record that does not exist is a no-op success.

SEE ALSO:
  - errors.go: ConflictError carries the per-date detail list
  - store.go: SaveRecords is the atomic commit point
*/
package scheduler

import "context"

// =============================================================================
// ENGINE
// =============================================================================

// Engine enforces cross-store mutual exclusivity on assign and remove.
type Engine struct {
	store Stores
}

// NewEngine creates an Engine over the given backend.
func NewEngine(store Stores) *Engine {
	return &Engine{store: store}
}

// AssignOptions carries category-specific extras.
type AssignOptions struct {
	// SeminarName is required for CategorySeminar and ignored otherwise.
	SeminarName string
}

// Assign records a single day. Equivalent to AssignRange over a one-day
// range.
func (e *Engine) Assign(ctx context.Context, id EmployeeID, date Date, category Category, opts AssignOptions) error {
	return e.AssignRange(ctx, id, SingleDay(date), category, opts)
}

// AssignRange records every day in the range, all-or-nothing. On conflict it
// returns a *ConflictError listing every conflicting date and writes nothing.
func (e *Engine) AssignRange(ctx context.Context, id EmployeeID, rng DateRange, category Category, opts AssignOptions) error {
	if !category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category " + string(category)}
	}
	if category == CategorySeminar && opts.SeminarName == "" {
		return &ValidationError{Field: "seminarName", Reason: "seminar assignments require a seminar name"}
	}
	if err := e.requireEmployee(ctx, id); err != nil {
		return err
	}

	existing, err := e.recordIndex(ctx, id)
	if err != nil {
		return err
	}

	// Evaluate every date before touching anything.
	var conflicts []DateConflict
	for _, day := range rng.Days() {
		rec, ok := existing[day.String()]
		if ok && rec.Category != category {
			conflicts = append(conflicts, DateConflict{
				Date:     day,
				Category: rec.Category,
				Detail:   rec.Detail(),
			})
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{EmployeeID: id, Requested: category, Conflicts: conflicts}
	}

	// Commit: rebuild the category store without this employee's rows for the
	// range, then append the new rows. One atomic save covers the batch.
	records, err := e.store.LoadRecords(ctx, category)
	if err != nil {
		return err
	}
	kept := records[:0:0]
	for _, rec := range records {
		if rec.EmployeeID == id && rng.Contains(rec.Date) {
			continue // same-category replace
		}
		kept = append(kept, rec)
	}
	for _, day := range rng.Days() {
		kept = append(kept, Record{
			EmployeeID:  id,
			Date:        day,
			Category:    category,
			Status:      category.StatusLabel(),
			SeminarName: opts.SeminarName,
		})
	}
	return e.store.SaveRecords(ctx, category, kept)
}

// Remove deletes the matching record if present. An absent record is a no-op
// success.
func (e *Engine) Remove(ctx context.Context, id EmployeeID, date Date, category Category) error {
	return e.RemoveRange(ctx, id, SingleDay(date), category)
}

// RemoveRange deletes every matching record in the range. Days without a
// record are skipped silently.
func (e *Engine) RemoveRange(ctx context.Context, id EmployeeID, rng DateRange, category Category) error {
	if !category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category " + string(category)}
	}
	if err := e.requireEmployee(ctx, id); err != nil {
		return err
	}

	records, err := e.store.LoadRecords(ctx, category)
	if err != nil {
		return err
	}
	kept := records[:0:0]
	removed := false
	for _, rec := range records {
		if rec.EmployeeID == id && rng.Contains(rec.Date) {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return nil
	}
	return e.store.SaveRecords(ctx, category, kept)
}

// =============================================================================
// QUERIES
// =============================================================================

// RecordOn returns the record for (employee, date) across all stores, or nil.
func (e *Engine) RecordOn(ctx context.Context, id EmployeeID, date Date) (*Record, error) {
	if err := e.requireEmployee(ctx, id); err != nil {
		return nil, err
	}
	index, err := e.recordIndex(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec, ok := index[date.String()]; ok {
		return &rec, nil
	}
	return nil, nil
}

// RecordsInRange returns one category's records within the range, every
// employee included.
func (e *Engine) RecordsInRange(ctx context.Context, category Category, rng DateRange) ([]Record, error) {
	records, err := e.store.LoadRecords(ctx, category)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range records {
		if rng.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// CountByEmployee counts one category's records per employee. Employees with
// no records are absent from the map.
func (e *Engine) CountByEmployee(ctx context.Context, category Category) (map[EmployeeID]int, error) {
	records, err := e.store.LoadRecords(ctx, category)
	if err != nil {
		return nil, err
	}
	counts := make(map[EmployeeID]int)
	for _, rec := range records {
		counts[rec.EmployeeID]++
	}
	return counts, nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// recordIndex loads all three stores and indexes this employee's records by
// date. The mutual-exclusivity invariant means each date maps to at most one
// record; if legacy data violates that, the first category in Categories()
// order wins, matching how conflicts were historically detected.
func (e *Engine) recordIndex(ctx context.Context, id EmployeeID) (map[string]Record, error) {
	index := make(map[string]Record)
	for _, category := range Categories() {
		records, err := e.store.LoadRecords(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if rec.EmployeeID != id {
				continue
			}
			if _, ok := index[rec.Date.String()]; !ok {
				index[rec.Date.String()] = rec
			}
		}
	}
	return index, nil
}

func (e *Engine) requireEmployee(ctx context.Context, id EmployeeID) error {
	employees, err := e.store.LoadEmployees(ctx)
	if err != nil {
		return err
	}
	for _, emp := range employees {
		if emp.ID == id {
			return nil
		}
	}
	return &NotFoundError{Kind: "employee", Key: string(id)}
}
