package permission

import (
	"errors"
	"sync"
)

// RoleManager holds the compiled permission mask of every role.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[Role]Mask64
	frozen bool
}

// NewRoleManager returns a manager resolving token names through registry.
func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[Role]Mask64),
	}
}

// RegisterRole compiles perms into a mask for role. Every token must
// already be registered.
func (rm *RoleManager) RegisterRole(role Role, perms []Permission) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return errors.New("role manager frozen")
	}
	if !role.Valid() {
		return errors.New("unknown role: " + string(role))
	}
	if _, exists := rm.roles[role]; exists {
		return errors.New("role already registered: " + string(role))
	}

	var mask Mask64
	for _, p := range perms {
		bit, ok := rm.registry.Bit(p)
		if !ok {
			return errors.New("permission not registered: " + string(p))
		}
		mask.Set(bit)
	}

	rm.roles[role] = mask
	return nil
}

// Mask returns the compiled mask for role.
func (rm *RoleManager) Mask(role Role) (Mask64, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	m, ok := rm.roles[role]
	return m, ok
}

// Freeze prevents further registrations.
func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

// Count returns the number of registered roles.
func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
