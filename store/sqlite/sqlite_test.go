package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkomis20/Team-Scheduler/scheduler"
	"github.com/mkomis20/Team-Scheduler/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestEmployees_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	employees := []scheduler.Employee{
		{ID: "C3D4", Name: "Bob", CredentialHash: "h1", Role: scheduler.RoleUser},
		{ID: "A1B2", Name: "Alice", CredentialHash: "h2", Role: scheduler.RoleAdmin},
	}
	require.NoError(t, store.SaveEmployees(ctx, employees))

	got, err := store.LoadEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, employees, got, "load preserves insertion order, not key order")
}

func TestEmployees_SaveReplacesWholeStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployees(ctx, []scheduler.Employee{
		{ID: "A1B2", Name: "Alice", CredentialHash: "h", Role: scheduler.RoleAdmin},
		{ID: "C3D4", Name: "Bob", CredentialHash: "h", Role: scheduler.RoleUser},
	}))
	require.NoError(t, store.SaveEmployees(ctx, []scheduler.Employee{
		{ID: "C3D4", Name: "Bob", CredentialHash: "h", Role: scheduler.RoleAdmin},
	}))

	got, err := store.LoadEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scheduler.EmployeeID("C3D4"), got[0].ID)
}

func TestEmployees_ScreenOverrideShapes(t *testing.T) {
	// GIVEN: One employee with no override, one with an empty override, one
	//        with a real override
	// WHEN: Round-tripping through the database
	// THEN: All three shapes survive; nil and empty stay distinct

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployees(ctx, []scheduler.Employee{
		{ID: "A1B2", Name: "Alice", CredentialHash: "h", Role: scheduler.RoleAdmin},
		{ID: "C3D4", Name: "Bob", CredentialHash: "h", Role: scheduler.RoleUser,
			ScreenOverride: []scheduler.Screen{}},
		{ID: "E5F6", Name: "Carol", CredentialHash: "h", Role: scheduler.RoleUser,
			ScreenOverride: []scheduler.Screen{scheduler.ScreenDashboard, scheduler.ScreenReports}},
	}))

	got, err := store.LoadEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Nil(t, got[0].ScreenOverride, "no override stays nil")
	require.NotNil(t, got[1].ScreenOverride, "empty override stays non-nil")
	assert.Empty(t, got[1].ScreenOverride)
	assert.Equal(t,
		[]scheduler.Screen{scheduler.ScreenDashboard, scheduler.ScreenReports},
		got[2].ScreenOverride)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestRecords_RoundTripPerCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wfh := []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
	}
	seminars := []scheduler.Record{
		{EmployeeID: "C3D4", Date: scheduler.NewDate(2025, 1, 7), Category: scheduler.CategorySeminar,
			Status: "Seminar", SeminarName: "Go Conference"},
	}
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategoryWFH, wfh))
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategorySeminar, seminars))

	gotWFH, err := store.LoadRecords(ctx, scheduler.CategoryWFH)
	require.NoError(t, err)
	assert.Equal(t, wfh, gotWFH)

	gotSeminars, err := store.LoadRecords(ctx, scheduler.CategorySeminar)
	require.NoError(t, err)
	assert.Equal(t, seminars, gotSeminars)

	gotAL, err := store.LoadRecords(ctx, scheduler.CategoryAnnualLeave)
	require.NoError(t, err)
	assert.Empty(t, gotAL)
}

func TestRecords_SaveOnlyTouchesItsCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecords(ctx, scheduler.CategoryWFH, []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
	}))
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategoryAnnualLeave, nil))

	gotWFH, err := store.LoadRecords(ctx, scheduler.CategoryWFH)
	require.NoError(t, err)
	assert.Len(t, gotWFH, 1, "saving another category must not clear this one")
}

func TestRecords_OneRecordPerEmployeePerDay(t *testing.T) {
	// The unique index backs up the domain rule: saving a second record for
	// the same employee and day in one store fails rather than duplicating.
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SaveRecords(ctx, scheduler.CategoryWFH, []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
	})
	require.Error(t, err)

	var perr *scheduler.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

// =============================================================================
// LEDGER AND REGISTRY
// =============================================================================

func TestBalances_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	balances := map[scheduler.EmployeeID]int{"A1B2": 14, "C3D4": 20}
	require.NoError(t, store.SaveBalances(ctx, balances))

	got, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, balances, got)
}

func TestRegistry_SeededOnFreshDatabase(t *testing.T) {
	store := newTestStore(t)

	registry, err := store.LoadRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scheduler.AllScreens(), registry[scheduler.RoleAdmin])
	assert.Equal(t, []scheduler.Screen{scheduler.ScreenDashboard}, registry[scheduler.RoleUser])
}

func TestRegistry_EditSurvivesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	registry, err := store.LoadRegistry(ctx)
	require.NoError(t, err)
	registry[scheduler.RoleUser] = []scheduler.Screen{scheduler.ScreenDashboard, scheduler.ScreenReports}
	require.NoError(t, store.SaveRegistry(ctx, registry))

	got, err := store.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, registry, got)
}

// =============================================================================
// CASCADES
// =============================================================================

func seedCascadeData(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategoryWFH, []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
		{EmployeeID: "C3D4", Date: scheduler.NewDate(2025, 1, 6), Category: scheduler.CategoryWFH, Status: "WFH"},
	}))
	require.NoError(t, store.SaveRecords(ctx, scheduler.CategorySeminar, []scheduler.Record{
		{EmployeeID: "A1B2", Date: scheduler.NewDate(2025, 1, 7), Category: scheduler.CategorySeminar,
			Status: "Seminar", SeminarName: "Go Conference"},
	}))
	require.NoError(t, store.SaveBalances(ctx, map[scheduler.EmployeeID]int{"A1B2": 14, "C3D4": 20}))
}

func TestRekey_MovesRecordsAndLedger(t *testing.T) {
	store := newTestStore(t)
	seedCascadeData(t, store)
	ctx := context.Background()

	require.NoError(t, store.Rekey(ctx, "A1B2", "Z9Z9"))

	wfh, err := store.LoadRecords(ctx, scheduler.CategoryWFH)
	require.NoError(t, err)
	ids := []scheduler.EmployeeID{wfh[0].EmployeeID, wfh[1].EmployeeID}
	assert.Contains(t, ids, scheduler.EmployeeID("Z9Z9"))
	assert.Contains(t, ids, scheduler.EmployeeID("C3D4"))
	assert.NotContains(t, ids, scheduler.EmployeeID("A1B2"))

	seminars, err := store.LoadRecords(ctx, scheduler.CategorySeminar)
	require.NoError(t, err)
	require.Len(t, seminars, 1)
	assert.Equal(t, scheduler.EmployeeID("Z9Z9"), seminars[0].EmployeeID)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"Z9Z9": 14, "C3D4": 20}, balances)
}

func TestPurge_RemovesOnlyTheTarget(t *testing.T) {
	store := newTestStore(t)
	seedCascadeData(t, store)
	ctx := context.Background()

	require.NoError(t, store.Purge(ctx, "A1B2"))

	wfh, err := store.LoadRecords(ctx, scheduler.CategoryWFH)
	require.NoError(t, err)
	require.Len(t, wfh, 1)
	assert.Equal(t, scheduler.EmployeeID("C3D4"), wfh[0].EmployeeID)

	seminars, err := store.LoadRecords(ctx, scheduler.CategorySeminar)
	require.NoError(t, err)
	assert.Empty(t, seminars)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[scheduler.EmployeeID]int{"C3D4": 20}, balances)
}
