/*
journal.go - Staged-rename cascades with a recovery journal

PURPOSE:
  An employee ID change or deletion rewrites up to four files (three
  attendance stores plus the ledger). A single rename is atomic; four are
  not. The cascade therefore stages every new file as a temp first, then
  records the pending renames in cascade_journal.json, then performs them,
  then deletes the journal.

RECOVERY:
  If the process dies mid-cascade, Open finds the journal and finishes the
  renames whose temp files still exist; temps that are gone were already
  renamed. Either way the journal is deleted afterwards, so replay is
  idempotent. A crash BEFORE the journal is written loses only temp files,
  never canonical data.
*/
package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mkomis20/Team-Scheduler/scheduler"
)

const journalFile = "cascade_journal.json"

type journal struct {
	ID     string         `json:"id"`
	Op     string         `json:"op"`
	From   string         `json:"from,omitempty"`
	To     string         `json:"to,omitempty"`
	Staged []stagedRename `json:"staged"`
}

// stagedRename records one pending rename. Both names are relative to the
// data directory, so a journal survives the directory being moved or
// remounted between crash and restart.
type stagedRename struct {
	Tmp    string `json:"tmp"`
	Target string `json:"target"`
}

// =============================================================================
// RECOVERY
// =============================================================================

// replayJournal completes a cascade interrupted between journal write and
// journal delete. No journal means nothing to do.
func (s *Store) replayJournal() error {
	raw, err := os.ReadFile(s.path(journalFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &scheduler.PersistenceError{Store: journalFile, Op: "load", Err: err}
	}
	var j journal
	if err := json.Unmarshal(raw, &j); err != nil {
		// A torn journal write means the cascade never started renaming;
		// the canonical files are intact.
		os.Remove(s.path(journalFile))
		return nil
	}
	for _, stage := range j.Staged {
		if _, err := os.Stat(s.path(stage.Tmp)); errors.Is(err, fs.ErrNotExist) {
			continue // this rename already happened
		}
		if err := os.Rename(s.path(stage.Tmp), s.path(stage.Target)); err != nil {
			return &scheduler.PersistenceError{Store: stage.Target, Op: "save", Err: err}
		}
	}
	if err := os.Remove(s.path(journalFile)); err != nil {
		return &scheduler.PersistenceError{Store: journalFile, Op: "save", Err: err}
	}
	return nil
}

// =============================================================================
// CASCADES
// =============================================================================

// Rekey rewrites every attendance record and ledger row from one employee ID
// to another, staging all files before renaming any.
func (s *Store) Rekey(ctx context.Context, from, to scheduler.EmployeeID) error {
	return s.cascade(ctx, journal{ID: uuid.NewString(), Op: "rekey", From: string(from), To: string(to)},
		func(rec *scheduler.Record) bool {
			if rec.EmployeeID != from {
				return false
			}
			rec.EmployeeID = to
			return true
		},
		func(balances map[scheduler.EmployeeID]int) bool {
			b, ok := balances[from]
			if !ok {
				return false
			}
			delete(balances, from)
			balances[to] = b
			return true
		})
}

// Purge deletes every attendance record and the ledger row for an ID.
func (s *Store) Purge(ctx context.Context, id scheduler.EmployeeID) error {
	return s.cascade(ctx, journal{ID: uuid.NewString(), Op: "purge", From: string(id)},
		func(rec *scheduler.Record) bool {
			if rec.EmployeeID != id {
				return false
			}
			rec.EmployeeID = "" // mark for drop
			return true
		},
		func(balances map[scheduler.EmployeeID]int) bool {
			if _, ok := balances[id]; !ok {
				return false
			}
			delete(balances, id)
			return true
		})
}

// cascade loads the dependent stores, applies the transforms, stages every
// changed file, journals the pending renames, then commits them. recordFn
// returns whether it changed the record; a record left with an empty
// EmployeeID is dropped.
func (s *Store) cascade(ctx context.Context, j journal,
	recordFn func(*scheduler.Record) bool,
	ledgerFn func(map[scheduler.EmployeeID]int) bool) error {

	cleanup := func() {
		for _, stage := range j.Staged {
			os.Remove(s.path(stage.Tmp))
		}
	}

	for _, category := range scheduler.Categories() {
		records, err := s.LoadRecords(ctx, category)
		if err != nil {
			cleanup()
			return err
		}
		changed := false
		kept := make([]scheduler.Record, 0, len(records))
		for _, rec := range records {
			if recordFn(&rec) {
				changed = true
			}
			if rec.EmployeeID != "" {
				kept = append(kept, rec)
			}
		}
		if !changed {
			continue
		}
		tmp, err := s.stage(categoryFile(category), encodeAttendance(kept))
		if err != nil {
			cleanup()
			return err
		}
		j.Staged = append(j.Staged, stagedRename{Tmp: tmp, Target: categoryFile(category)})
	}

	balances, err := s.LoadBalances(ctx)
	if err != nil {
		cleanup()
		return err
	}
	if ledgerFn(balances) {
		tmp, err := s.stage(ledgerFile, encodeLedger(balances))
		if err != nil {
			cleanup()
			return err
		}
		j.Staged = append(j.Staged, stagedRename{Tmp: tmp, Target: ledgerFile})
	}

	if len(j.Staged) == 0 {
		return nil
	}

	// Point of no return: once the journal lands, the cascade will complete
	// either now or on the next Open.
	if err := s.write(journalFile, j); err != nil {
		cleanup()
		return err
	}
	for _, stage := range j.Staged {
		if err := os.Rename(s.path(stage.Tmp), s.path(stage.Target)); err != nil {
			return &scheduler.PersistenceError{Store: stage.Target, Op: "save", Err: err}
		}
	}
	if err := os.Remove(s.path(journalFile)); err != nil {
		return &scheduler.PersistenceError{Store: journalFile, Op: "save", Err: err}
	}
	return nil
}

// stage marshals v to a temp file beside the target without touching the
// canonical file. Returns the temp file's name within the data directory.
func (s *Store) stage(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", &scheduler.PersistenceError{Store: name, Op: "save", Err: err}
	}
	tmp, err := writeTemp(s.dir, name, data)
	if err != nil {
		return "", &scheduler.PersistenceError{Store: name, Op: "save", Err: err}
	}
	return filepath.Base(tmp), nil
}
