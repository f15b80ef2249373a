package goAccess

import (
	"time"

	"github.com/MrEthical07/goAccess/password"
)

func (m *Manager) stateLocked(now time.Time) State {
	switch {
	case m.authenticating:
		return StateAuthenticating
	case m.token != "" && m.identity != nil:
		return StateAuthenticated
	case m.lock.Locked(now):
		return StateLockedOut
	default:
		return StateAnonymous
	}
}

// State returns the current state machine position.
func (m *Manager) State() State {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked(now)
}

// IsAuthenticated reports whether both a token and an identity are held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && m.identity != nil
}

// IsLocked reports whether a lockout is in force.
func (m *Manager) IsLocked() bool {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lock.Locked(now)
}

// Token returns the session token, which may be set before Restore has
// fetched an identity.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Identity returns a copy of the current identity, or nil.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneIdentity(m.identity)
}

// FailedAttempts returns the consecutive failed login count.
func (m *Manager) FailedAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lock.Failures
}

// LockoutUntil returns the end of the last lockout, or the zero time.
func (m *Manager) LockoutUntil() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lock.Until
}

// Snapshot copies every session field under a single lock.
func (m *Manager) Snapshot() Snapshot {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		State:               m.stateLocked(now),
		Authenticated:       m.token != "" && m.identity != nil,
		Token:               m.token,
		Identity:            cloneIdentity(m.identity),
		LastPasswordChange:  m.lastPasswordChange,
		ForcePasswordChange: m.forcePasswordChange,
		NeedsPasswordChange: m.needsPasswordChangeLocked(now),
		PasswordExpiry:      m.passwordExpiryLocked(now),
		FailedAttempts:      m.lock.Failures,
		LockoutUntil:        m.lock.Until,
		Locked:              m.lock.Locked(now),
	}
}

func (m *Manager) needsPasswordChangeLocked(now time.Time) bool {
	return m.forcePasswordChange || now.Sub(m.lastPasswordChange) >= m.config.Password.MaxAge
}

func (m *Manager) passwordExpiryLocked(now time.Time) password.Expiry {
	return password.CheckExpiry(m.lastPasswordChange, now, m.config.Password.MaxAge, m.config.Password.ExpiryWarning)
}
