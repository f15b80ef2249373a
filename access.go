package goAccess

import "github.com/MrEthical07/goAccess/permission"

// HasPermission reports whether id's role holds at least one of required.
// A nil identity never has a permission. A nil resolver means
// permission.Default().
func HasPermission(res *permission.Resolver, id *Identity, required ...permission.Permission) bool {
	if id == nil {
		return false
	}
	if res == nil {
		res = permission.Default()
	}
	return res.Allows(id.Role, required...)
}

// HasRole reports whether id's role is one of required. A nil identity
// never has a role.
func HasRole(id *Identity, required ...permission.Role) bool {
	if id == nil {
		return false
	}
	return permission.RoleIn(id.Role, required...)
}

// HasPermission reports whether the current identity holds at least one
// of required.
func (m *Manager) HasPermission(required ...permission.Permission) bool {
	return HasPermission(m.resolver, m.Identity(), required...)
}

// HasRole reports whether the current identity's role is one of required.
func (m *Manager) HasRole(required ...permission.Role) bool {
	return HasRole(m.Identity(), required...)
}

// Permissions returns the permission set of the current identity. An
// unauthenticated session has the empty set.
func (m *Manager) Permissions() permission.Set {
	id := m.Identity()
	if id == nil {
		return permission.NewSet()
	}
	return m.resolver.PermissionsFor(id.Role)
}

// Resolver returns the resolver used for permission checks.
func (m *Manager) Resolver() *permission.Resolver {
	return m.resolver
}
