package scheduler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkomis20/Team-Scheduler/scheduler"
	"github.com/mkomis20/Team-Scheduler/store/memory"
)

func newTestResolver(t *testing.T) (*scheduler.Resolver, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveEmployees(ctx, []scheduler.Employee{
		{ID: "AD01", Name: "Admin One", CredentialHash: "x", Role: scheduler.RoleAdmin},
		{ID: "US01", Name: "User One", CredentialHash: "x", Role: scheduler.RoleUser},
	}))
	return scheduler.NewResolver(store), store
}

func TestResolver_RoleDefaults(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	screens, err := resolver.Resolve(ctx, "AD01")
	require.NoError(t, err)
	assert.Equal(t, scheduler.AllScreens(), screens, "admins see every screen")

	screens, err = resolver.Resolve(ctx, "US01")
	require.NoError(t, err)
	assert.Equal(t, []scheduler.Screen{scheduler.ScreenDashboard}, screens, "users see only the dashboard")
}

func TestResolver_OverrideWinsOverRole(t *testing.T) {
	// GIVEN: A User with an explicit override granting Reports
	// WHEN: Resolving their screens
	// THEN: The override is returned verbatim, not merged with the role set

	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	override := []scheduler.Screen{scheduler.ScreenReports}
	require.NoError(t, resolver.SetOverride(ctx, "US01", override))

	screens, err := resolver.Resolve(ctx, "US01")
	require.NoError(t, err)
	assert.Equal(t, override, screens)
}

func TestResolver_EmptyOverrideMeansNoAccess(t *testing.T) {
	// An intentionally empty override still wins over the role set.
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	require.NoError(t, resolver.SetOverride(ctx, "AD01", []scheduler.Screen{}))

	screens, err := resolver.Resolve(ctx, "AD01")
	require.NoError(t, err)
	assert.Empty(t, screens)
	assert.NotNil(t, screens)
}

func TestResolver_ClearOverrideRevertsToRole(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	require.NoError(t, resolver.SetOverride(ctx, "US01", []scheduler.Screen{scheduler.ScreenReports}))
	require.NoError(t, resolver.SetOverride(ctx, "US01", nil))

	screens, err := resolver.Resolve(ctx, "US01")
	require.NoError(t, err)
	assert.Equal(t, []scheduler.Screen{scheduler.ScreenDashboard}, screens)
}

func TestResolver_RegistryEditAffectsNonOverridden(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	// Pin US01 behind an override, then widen the User role.
	require.NoError(t, resolver.SetOverride(ctx, "US01", []scheduler.Screen{scheduler.ScreenDashboard}))
	require.NoError(t, resolver.SetRoleScreens(ctx, scheduler.RoleUser,
		[]scheduler.Screen{scheduler.ScreenDashboard, scheduler.ScreenReports}))

	screens, err := resolver.Resolve(ctx, "US01")
	require.NoError(t, err)
	assert.Equal(t, []scheduler.Screen{scheduler.ScreenDashboard}, screens,
		"overridden employees are untouched by registry edits")
}

func TestResolver_UnknownRoleFailsClosed(t *testing.T) {
	// An employee whose role is missing from the registry gets no screens.
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveEmployees(ctx, []scheduler.Employee{
		{ID: "GH01", Name: "Ghost", CredentialHash: "x", Role: scheduler.Role("Contractor")},
	}))
	resolver := scheduler.NewResolver(store)

	screens, err := resolver.Resolve(ctx, "GH01")
	require.NoError(t, err)
	assert.Empty(t, screens)
}

func TestResolver_SetRoleScreens_UnknownRole(t *testing.T) {
	resolver, _ := newTestResolver(t)

	err := resolver.SetRoleScreens(context.Background(), scheduler.Role("Contractor"), nil)

	assert.ErrorIs(t, err, scheduler.ErrNotFound)
}

func TestEffectiveScreens_CopiesAreIndependent(t *testing.T) {
	// Mutating a resolved slice must not leak into the registry.
	registry := scheduler.DefaultRegistry()
	emp := scheduler.Employee{ID: "AD01", Role: scheduler.RoleAdmin}

	screens := scheduler.EffectiveScreens(emp, registry)
	screens[0] = scheduler.Screen("Tampered")

	assert.Equal(t, scheduler.ScreenDashboard, registry[scheduler.RoleAdmin][0])
}
