package file_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkomis20/Team-Scheduler/scheduler"
	"github.com/mkomis20/Team-Scheduler/store/file"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func legacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// FRESH DIRECTORY
// =============================================================================

func TestOpen_FreshDirectory(t *testing.T) {
	dir := t.TempDir()

	store, err := file.Open(dir)
	require.NoError(t, err)

	// Every store file exists at the current version.
	for _, name := range []string{
		"employees.json", "leave_balances.json", "role_permissions.json",
		"wfh_records.json", "annual_leave_records.json", "seminar_records.json",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	registry, err := store.LoadRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scheduler.AllScreens(), registry[scheduler.RoleAdmin])
}

func TestOpen_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := file.Open(dir)
	require.NoError(t, err)

	employees := []scheduler.Employee{
		{ID: "A1B2", Name: "Alice", CredentialHash: "h", Role: scheduler.RoleAdmin},
		{ID: "C3D4", Name: "Bob", CredentialHash: "h", Role: scheduler.RoleUser,
			ScreenOverride: []scheduler.Screen{scheduler.ScreenDashboard}},
	}
	require.NoError(t, store.SaveEmployees(ctx, employees))
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategorySeminar, []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategorySeminar,
			Status: "Seminar", SeminarName: "Go Conference"},
	}))
	require.NoError(t, store.SaveBalances(ctx, map[scheduler.EmployeeID]int{"A1B2": 18}))

	// Reopen and verify everything came back.
	reopened, err := file.Open(dir)
	require.NoError(t, err)

	got, err := reopened.LoadEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, employees, got)

	records, err := reopened.LoadRecords(ctx, scheduler.CategorySeminar)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Go Conference", records[0].SeminarName)

	balances, err := reopened.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"A1B2": 18}, balances)
}

// =============================================================================
// LEGACY MIGRATION
// =============================================================================

func TestMigrate_BareNameList(t *testing.T) {
	// GIVEN: The oldest directory shape, a bare list of names
	// WHEN: Opening the data directory
	// THEN: IDs are synthesized, the first account becomes Admin, everyone
	//       gets the default credential, and the file is rewritten versioned

	dir := t.TempDir()
	writeFile(t, dir, "employees.json", `["Alice", "Bob"]`)

	store, err := file.Open(dir)
	require.NoError(t, err)

	employees, err := store.LoadEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 2)

	assert.Equal(t, scheduler.EmployeeID("E001"), employees[0].ID)
	assert.Equal(t, "Alice", employees[0].Name)
	assert.Equal(t, scheduler.RoleAdmin, employees[0].Role)
	assert.Equal(t, legacyHash("1234"), employees[0].CredentialHash)

	assert.Equal(t, scheduler.EmployeeID("E002"), employees[1].ID)
	assert.Equal(t, scheduler.RoleUser, employees[1].Role)

	assert.Contains(t, readFile(t, dir, "employees.json"), `"version"`)
}

func TestMigrate_BootstrapAdminByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "employees.json", `["Alice", "Bob"]`)

	store, err := file.Open(dir, file.WithBootstrapAdmin("Bob"))
	require.NoError(t, err)

	employees, err := store.LoadEmployees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scheduler.RoleUser, employees[0].Role)
	assert.Equal(t, scheduler.RoleAdmin, employees[1].Role)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	// Opening twice converges: the second pass changes nothing.
	dir := t.TempDir()
	writeFile(t, dir, "employees.json",
		`[{"name": "Alice", "id": "A1B2", "password": "`+legacyHash("secret")+`", "role": "Admin", "annual_leave_balance": 12}]`)

	_, err := file.Open(dir)
	require.NoError(t, err)
	first := readFile(t, dir, "employees.json")
	firstLedger := readFile(t, dir, "leave_balances.json")

	_, err = file.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, dir, "employees.json"))
	assert.Equal(t, firstLedger, readFile(t, dir, "leave_balances.json"))
}

func TestMigrate_EmbeddedBalance_LedgerWins(t *testing.T) {
	// GIVEN: A legacy directory embedding a stale balance AND a ledger row
	//        for the same employee
	// WHEN: Migrating
	// THEN: The ledger row survives; the embedded value is only used for
	//       employees the ledger does not know

	dir := t.TempDir()
	writeFile(t, dir, "employees.json",
		`[{"name": "Alice", "id": "A1B2", "annual_leave_balance": 12},
		  {"name": "Bob", "id": "C3D4", "annual_leave_balance": 7}]`)
	writeFile(t, dir, "leave_balances.json", `{"version": 1, "balances": {"A1B2": 19}}`)

	store, err := file.Open(dir)
	require.NoError(t, err)

	balances, err := store.LoadBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 19, balances["A1B2"], "existing ledger row wins over embedded value")
	assert.Equal(t, 7, balances["C3D4"], "embedded value fills the missing row")
}

func TestMigrate_LegacyLedgerRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "leave_balances.json",
		`[{"employee_id": "A1B2", "annual_leave_balance": 15}]`)

	store, err := file.Open(dir)
	require.NoError(t, err)

	balances, err := store.LoadBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"A1B2": 15}, balances)
}

func TestMigrate_NameKeyedAttendance(t *testing.T) {
	// GIVEN: Legacy attendance rows keyed by display name, one of them
	//        naming an employee who no longer exists
	// WHEN: Migrating
	// THEN: Rows are re-keyed by employee ID and the orphan is dropped

	dir := t.TempDir()
	writeFile(t, dir, "employees.json",
		`[{"name": "Alice", "id": "A1B2", "role": "Admin"}]`)
	writeFile(t, dir, "wfh_records.json",
		`[{"employee_name": "Alice", "date": "2025-01-06", "status": "WFH"},
		  {"employee_name": "Ghost", "date": "2025-01-07", "status": "WFH"}]`)

	store, err := file.Open(dir)
	require.NoError(t, err)

	records, err := store.LoadRecords(context.Background(), scheduler.CategoryWFH)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, scheduler.EmployeeID("A1B2"), records[0].EmployeeID)
	assert.Equal(t, scheduler.NewDate(2025, 1, 6), records[0].Date)
}

func TestMigrate_LegacyTimestampDates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "employees.json",
		`[{"name": "Alice", "id": "A1B2", "role": "Admin"}]`)
	writeFile(t, dir, "annual_leave_records.json",
		`[{"employee_id": "A1B2", "date": "2025-01-06 00:00:00"}]`)

	store, err := file.Open(dir)
	require.NoError(t, err)

	records, err := store.LoadRecords(context.Background(), scheduler.CategoryAnnualLeave)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, scheduler.NewDate(2025, 1, 6), records[0].Date)
	assert.Equal(t, "Annual Leave", records[0].Status, "missing status is defaulted")
}

func TestMigrate_CorruptDirectoryLeavesLegacyAttendanceAlone(t *testing.T) {
	// GIVEN: An unreadable employees.json beside legacy name-keyed rows
	// WHEN: Opening the data directory
	// THEN: Open fails rather than re-keying against an empty name index,
	//       and the legacy file is untouched

	dir := t.TempDir()
	writeFile(t, dir, "employees.json", `{not json`)
	legacyRows := `[{"employee_name": "Alice", "date": "2025-01-06", "status": "WFH"}]`
	writeFile(t, dir, "wfh_records.json", legacyRows)

	_, err := file.Open(dir)
	require.Error(t, err)

	var perr *scheduler.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, legacyRows, readFile(t, dir, "wfh_records.json"),
		"legacy rows must survive until employees.json is repaired")
}

func TestMigrate_CorruptDirectoryWithCurrentAttendanceStillOpens(t *testing.T) {
	// Already-migrated attendance needs no name index, so a corrupt
	// directory degrades to empty without losing any records.
	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategoryWFH, []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
	}))

	writeFile(t, dir, "employees.json", `{not json`)

	reopened, err := file.Open(dir)
	require.NoError(t, err)

	employees, err := reopened.LoadEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)

	records, err := reopened.LoadRecords(ctx, scheduler.CategoryWFH)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, scheduler.EmployeeID("A1B2"), records[0].EmployeeID)
}

// =============================================================================
// READ-SIDE FALLBACKS
// =============================================================================

func TestLoad_CorruptOptionalStoresFallBack(t *testing.T) {
	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	writeFile(t, dir, "leave_balances.json", `{not json`)
	writeFile(t, dir, "role_permissions.json", `{not json`)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, balances)

	registry, err := store.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, scheduler.DefaultRegistry(), registry)
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)

	require.NoError(t, store.SaveBalances(context.Background(), map[scheduler.EmployeeID]int{"A1B2": 5}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-", "temp files must not survive a save")
	}
}

func TestSave_ReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SaveBalances(ctx, map[scheduler.EmployeeID]int{"A1B2": 5, "C3D4": 6}))
	require.NoError(t, store.SaveBalances(ctx, map[scheduler.EmployeeID]int{"A1B2": 9}))

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"A1B2": 9}, balances)
}

// =============================================================================
// CASCADES AND THE RECOVERY JOURNAL
// =============================================================================

func seedCascadeData(t *testing.T, store *file.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveEmployees(ctx, []scheduler.Employee{
		{ID: "A1B2", Name: "Alice", CredentialHash: "h", Role: scheduler.RoleAdmin},
	}))
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategoryWFH, []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
	}))
	require.NoError(t, store.SaveBalances(ctx, map[scheduler.EmployeeID]int{"A1B2": 14}))
}

func TestRekey_MovesRecordsAndLedger(t *testing.T) {
	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)
	seedCascadeData(t, store)
	ctx := context.Background()

	require.NoError(t, store.Rekey(ctx, "A1B2", "Z9Z9"))

	records, err := store.LoadRecords(ctx, scheduler.CategoryWFH)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, scheduler.EmployeeID("Z9Z9"), records[0].EmployeeID)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"Z9Z9": 14}, balances)

	assert.NoFileExists(t, filepath.Join(dir, "cascade_journal.json"))
}

func TestPurge_RemovesEverything(t *testing.T) {
	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)
	seedCascadeData(t, store)
	ctx := context.Background()

	require.NoError(t, store.Purge(ctx, "A1B2"))

	records, err := store.LoadRecords(ctx, scheduler.CategoryWFH)
	require.NoError(t, err)
	assert.Empty(t, records)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func TestJournal_ReplayCompletesInterruptedCascade(t *testing.T) {
	// GIVEN: A cascade that staged its files and wrote the journal but died
	//        before renaming
	// WHEN: The directory is opened again
	// THEN: The staged files are renamed into place and the journal removed

	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)
	seedCascadeData(t, store)
	ctx := context.Background()

	// Hand-stage the ledger rewrite the way an interrupted Rekey would.
	const stagedName = "leave_balances.json.tmp-journaltest"
	staged := filepath.Join(dir, stagedName)
	require.NoError(t, os.WriteFile(staged,
		[]byte(`{"version": 1, "balances": {"Z9Z9": 14}}`), 0o644))
	journal := map[string]any{
		"id": "0c9d3f6a-0000-0000-0000-000000000000",
		"op": "rekey", "from": "A1B2", "to": "Z9Z9",
		"staged": []map[string]string{{"tmp": stagedName, "target": "leave_balances.json"}},
	}
	data, err := json.Marshal(journal)
	require.NoError(t, err)
	writeFile(t, dir, "cascade_journal.json", string(data))

	reopened, err := file.Open(dir)
	require.NoError(t, err)

	balances, err := reopened.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"Z9Z9": 14}, balances)
	assert.NoFileExists(t, filepath.Join(dir, "cascade_journal.json"))
	assert.NoFileExists(t, staged)
}

func TestJournal_ReplaySurvivesDirectoryMove(t *testing.T) {
	// The journal records names relative to the data directory, so an
	// interrupted cascade still completes after the directory is relocated.
	parent := t.TempDir()
	dir := filepath.Join(parent, "data")
	store, err := file.Open(dir)
	require.NoError(t, err)
	seedCascadeData(t, store)

	const stagedName = "leave_balances.json.tmp-movetest"
	require.NoError(t, os.WriteFile(filepath.Join(dir, stagedName),
		[]byte(`{"version": 1, "balances": {"Z9Z9": 14}}`), 0o644))
	writeFile(t, dir, "cascade_journal.json",
		`{"id": "x", "op": "rekey", "from": "A1B2", "to": "Z9Z9",
		  "staged": [{"tmp": "`+stagedName+`", "target": "leave_balances.json"}]}`)

	moved := filepath.Join(parent, "relocated")
	require.NoError(t, os.Rename(dir, moved))

	reopened, err := file.Open(moved)
	require.NoError(t, err)

	balances, err := reopened.LoadBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"Z9Z9": 14}, balances)
	assert.NoFileExists(t, filepath.Join(moved, "cascade_journal.json"))
}

func TestJournal_TornJournalIsDiscarded(t *testing.T) {
	// A journal that never finished writing means no rename started; the
	// canonical files are intact and the journal is just deleted.
	dir := t.TempDir()
	store, err := file.Open(dir)
	require.NoError(t, err)
	seedCascadeData(t, store)

	writeFile(t, dir, "cascade_journal.json", `{"id": "x", "op": "rek`)

	reopened, err := file.Open(dir)
	require.NoError(t, err)

	balances, err := reopened.LoadBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"A1B2": 14}, balances)
	assert.NoFileExists(t, filepath.Join(dir, "cascade_journal.json"))
}
