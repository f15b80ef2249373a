package permission

import (
	"errors"
	"sync"
)

// MaxPermissions is the number of distinct tokens a Registry can hold.
const MaxPermissions = 64

// Registry maps permission tokens to bit positions within a Mask64.
type Registry struct {
	mu        sync.RWMutex
	nameToBit map[Permission]int
	bitToName map[int]Permission
	frozen    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nameToBit: make(map[Permission]int),
		bitToName: make(map[int]Permission),
	}
}

// Register assigns the next free bit to p and returns it. It must be called
// before Freeze.
func (r *Registry) Register(p Permission) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, errors.New("registry frozen")
	}
	if p == "" {
		return -1, errors.New("permission name cannot be empty")
	}
	if _, exists := r.nameToBit[p]; exists {
		return -1, errors.New("permission already registered: " + string(p))
	}

	next := len(r.nameToBit)
	if next >= MaxPermissions {
		return -1, errors.New("permission limit exceeded")
	}

	r.nameToBit[p] = next
	r.bitToName[next] = p
	return next, nil
}

// Bit returns the bit index for p.
func (r *Registry) Bit(p Permission) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[p]
	return bit, ok
}

// Name returns the token assigned to bit.
func (r *Registry) Name(bit int) (Permission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.bitToName[bit]
	return p, ok
}

// Mask returns the mask of every registered token in ps. Unknown tokens
// are skipped.
func (r *Registry) Mask(ps ...Permission) Mask64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var m Mask64
	for _, p := range ps {
		if bit, ok := r.nameToBit[p]; ok {
			m.Set(bit)
		}
	}
	return m
}

// Expand lists the tokens set in m in bit order.
func (r *Registry) Expand(m Mask64) []Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Permission, 0, m.Len())
	for bit := 0; bit < MaxPermissions; bit++ {
		if m.Has(bit) {
			out = append(out, r.bitToName[bit])
		}
	}
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nameToBit)
}
