/*
permissions.go - Effective screen resolution

PURPOSE:
  Computes which UI screens an identity may navigate to. Resolution order:

    1. An explicit per-employee ScreenOverride, returned verbatim. An
       intentionally empty override means "no access" and still wins.
    2. Otherwise the registry's set for the employee's role.
    3. A role absent from the registry resolves to no screens (fail closed).

  Registry edits affect every employee without an override; overridden
  employees are untouched until their override is cleared.
*/
package scheduler

import "context"

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver computes effective navigable screens for an identity.
type Resolver struct {
	store Stores
}

// NewResolver creates a Resolver over the given backend.
func NewResolver(store Stores) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the effective screen set for an employee.
func (r *Resolver) Resolve(ctx context.Context, id EmployeeID) ([]Screen, error) {
	employees, err := r.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	var emp *Employee
	for i := range employees {
		if employees[i].ID == id {
			emp = &employees[i]
			break
		}
	}
	if emp == nil {
		return nil, &NotFoundError{Kind: "employee", Key: string(id)}
	}

	registry, err := r.store.LoadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return EffectiveScreens(*emp, registry), nil
}

// EffectiveScreens is the pure resolution rule, separated out so it can be
// applied to an already-loaded employee.
func EffectiveScreens(emp Employee, registry RoleRegistry) []Screen {
	if emp.ScreenOverride != nil {
		out := make([]Screen, len(emp.ScreenOverride))
		copy(out, emp.ScreenOverride)
		return out
	}
	screens := registry.Screens(emp.Role)
	if screens == nil {
		return []Screen{} // fail closed
	}
	out := make([]Screen, len(screens))
	copy(out, screens)
	return out
}

// Registry returns the current role-to-screens registry.
func (r *Resolver) Registry(ctx context.Context) (RoleRegistry, error) {
	return r.store.LoadRegistry(ctx)
}

// =============================================================================
// REGISTRY MUTATION
// =============================================================================

// SetRoleScreens replaces one role's default screen set. Caller authorization
// (admin only) is the session layer's responsibility.
func (r *Resolver) SetRoleScreens(ctx context.Context, role Role, screens []Screen) error {
	if role != RoleAdmin && role != RoleUser {
		return &NotFoundError{Kind: "role", Key: string(role)}
	}
	registry, err := r.store.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	if screens == nil {
		screens = []Screen{}
	}
	registry[role] = screens
	return r.store.SaveRegistry(ctx, registry)
}

// SetOverride installs or clears (screens == nil) an employee's explicit
// permission override.
func (r *Resolver) SetOverride(ctx context.Context, id EmployeeID, screens []Screen) error {
	employees, err := r.store.LoadEmployees(ctx)
	if err != nil {
		return err
	}
	for i := range employees {
		if employees[i].ID == id {
			employees[i].ScreenOverride = screens
			return r.store.SaveEmployees(ctx, employees)
		}
	}
	return &NotFoundError{Kind: "employee", Key: string(id)}
}
