package permission

import (
	"fmt"
	"sync"
)

// Resolver answers role and permission queries against a frozen table.
// It is safe for concurrent use.
type Resolver struct {
	registry *Registry
	roles    *RoleManager
	sets     map[Role]Set
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns the process-wide resolver over DefaultTable.
func Default() *Resolver {
	defaultOnce.Do(func() {
		r, err := NewResolver(DefaultTable())
		if err != nil {
			panic(fmt.Sprintf("permission: built-in table invalid: %v", err))
		}
		defaultResolver = r
	})
	return defaultResolver
}

// NewResolver compiles table. The table must have an entry, possibly empty,
// for every role in the enum and must only name known tokens.
func NewResolver(table map[Role][]Permission) (*Resolver, error) {
	registry := NewRegistry()
	for _, p := range allPermissions {
		if _, err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	roles := NewRoleManager(registry)
	sets := make(map[Role]Set, len(allRoles))
	for _, role := range allRoles {
		perms, ok := table[role]
		if !ok {
			return nil, fmt.Errorf("permission: table has no entry for role %q", role)
		}
		if err := roles.RegisterRole(role, perms); err != nil {
			return nil, fmt.Errorf("permission: role %q: %w", role, err)
		}
		sets[role] = NewSet(perms...)
	}
	for role := range table {
		if !role.Valid() {
			return nil, fmt.Errorf("permission: table names unknown role %q", role)
		}
	}
	roles.Freeze()

	return &Resolver{registry: registry, roles: roles, sets: sets}, nil
}

// PermissionsFor returns the permission set of role. Unknown roles yield
// the empty set.
func (r *Resolver) PermissionsFor(role Role) Set {
	return r.sets[role]
}

// Allows reports whether role holds at least one of required.
func (r *Resolver) Allows(role Role, required ...Permission) bool {
	held, ok := r.roles.Mask(role)
	if !ok {
		return false
	}
	return held.Any(r.registry.Mask(required...))
}

// AllowsAll reports whether role holds every token in required.
func (r *Resolver) AllowsAll(role Role, required ...Permission) bool {
	held, ok := r.roles.Mask(role)
	if !ok || len(required) == 0 {
		return false
	}
	for _, p := range required {
		bit, known := r.registry.Bit(p)
		if !known || !held.Has(bit) {
			return false
		}
	}
	return true
}

// RoleIn reports whether role is one of required.
func RoleIn(role Role, required ...Role) bool {
	for _, want := range required {
		if role == want {
			return true
		}
	}
	return false
}
