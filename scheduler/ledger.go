/*
ledger.go - Leave balance bookkeeping

PURPOSE:
  The ledger holds one integer leave balance per employee, persisted
  independently from the directory so balance edits never risk corrupting
  identity fields. "Remaining" leave is never stored: it is always derived
  as balance minus the count of scheduled annual-leave records, which makes
  drift between the two numbers impossible.

DEFAULTS:
  An employee with no ledger row has DefaultLeaveBalance (20 days). The
  row is created lazily on the first explicit SetBalance.

SEE ALSO:
  - store/file/migrate.go: extracts legacy embedded balances into the
    ledger (an existing ledger row always wins over the embedded value)
*/
package scheduler

import (
	"context"
	"sort"
)

// DefaultLeaveBalance is the balance assumed for employees without a ledger
// row.
const DefaultLeaveBalance = 20

// =============================================================================
// LEDGER
// =============================================================================

// Ledger reads and writes per-employee leave balances.
type Ledger struct {
	store Stores
}

// NewLedger creates a Ledger over the given backend.
func NewLedger(store Stores) *Ledger {
	return &Ledger{store: store}
}

// Balance returns the employee's leave balance, DefaultLeaveBalance when no
// ledger row exists. Unknown IDs are not an error here: the ledger is an
// optional store and reads fall back to the documented default.
func (l *Ledger) Balance(ctx context.Context, id EmployeeID) (int, error) {
	balances, err := l.store.LoadBalances(ctx)
	if err != nil {
		return 0, err
	}
	if b, ok := balances[id]; ok {
		return b, nil
	}
	return DefaultLeaveBalance, nil
}

// SetBalance inserts or updates the single ledger row for the employee. The
// employee must exist in the directory.
func (l *Ledger) SetBalance(ctx context.Context, id EmployeeID, balance int) error {
	if balance < 0 {
		return &ValidationError{Field: "balance", Reason: "balance cannot be negative"}
	}
	employees, err := l.store.LoadEmployees(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, emp := range employees {
		if emp.ID == id {
			found = true
			break
		}
	}
	if !found {
		return &NotFoundError{Kind: "employee", Key: string(id)}
	}

	balances, err := l.store.LoadBalances(ctx)
	if err != nil {
		return err
	}
	balances[id] = balance
	return l.store.SaveBalances(ctx, balances)
}

// Remaining derives the employee's unscheduled leave: balance minus the
// number of annual-leave records on file. Can be negative when more leave is
// scheduled than the balance allows; the caller decides how to warn.
func (l *Ledger) Remaining(ctx context.Context, id EmployeeID) (int, error) {
	balance, err := l.Balance(ctx, id)
	if err != nil {
		return 0, err
	}
	scheduled, err := l.scheduledDays(ctx, id)
	if err != nil {
		return 0, err
	}
	return balance - scheduled, nil
}

// =============================================================================
// REPORTING
// =============================================================================

// BalanceRow is one line of the leave balance report.
type BalanceRow struct {
	EmployeeID EmployeeID
	Name       string
	Balance    int
	Scheduled  int
	Remaining  int
}

// BalanceReport returns one row per directory employee, sorted by name.
func (l *Ledger) BalanceReport(ctx context.Context) ([]BalanceRow, error) {
	employees, err := l.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := l.store.LoadBalances(ctx)
	if err != nil {
		return nil, err
	}
	records, err := l.store.LoadRecords(ctx, CategoryAnnualLeave)
	if err != nil {
		return nil, err
	}
	scheduled := make(map[EmployeeID]int)
	for _, rec := range records {
		scheduled[rec.EmployeeID]++
	}

	rows := make([]BalanceRow, 0, len(employees))
	for _, emp := range employees {
		balance, ok := balances[emp.ID]
		if !ok {
			balance = DefaultLeaveBalance
		}
		rows = append(rows, BalanceRow{
			EmployeeID: emp.ID,
			Name:       emp.Name,
			Balance:    balance,
			Scheduled:  scheduled[emp.ID],
			Remaining:  balance - scheduled[emp.ID],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (l *Ledger) scheduledDays(ctx context.Context, id EmployeeID) (int, error) {
	records, err := l.store.LoadRecords(ctx, CategoryAnnualLeave)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range records {
		if rec.EmployeeID == id {
			n++
		}
	}
	return n, nil
}
