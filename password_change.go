package goAccess

import (
	"context"

	"github.com/MrEthical07/goAccess/password"
)

// NeedsPasswordChange reports whether the password is older than the
// configured maximum age or a change was forced at first login.
func (m *Manager) NeedsPasswordChange() bool {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.needsPasswordChangeLocked(now)
}

// PasswordExpiry reports days left before the password expires and
// whether the warning window has started.
func (m *Manager) PasswordExpiry() password.Expiry {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passwordExpiryLocked(now)
}

// RecordPasswordChanged sets the last change time to now and clears a
// forced change.
func (m *Manager) RecordPasswordChanged(ctx context.Context) {
	m.mu.Lock()
	m.lastPasswordChange = m.clock.Now()
	m.forcePasswordChange = false
	m.mu.Unlock()

	m.persist(ctx)
}

// ChangePassword checks req against the password policy and, when it
// passes, asks the Authenticator to change the password. The Authenticator
// must implement PasswordChanger.
//
// Rejections return ErrPasswordMismatch, ErrPasswordReuse or a
// *PolicyError carrying the full evaluation.
func (m *Manager) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	done, err := m.begin()
	if err != nil {
		return err
	}
	defer done()

	m.mu.Lock()
	token := m.token
	authenticated := token != "" && m.identity != nil
	id := cloneIdentity(m.identity)
	from := m.stateLocked(m.clock.Now())
	m.mu.Unlock()
	if !authenticated {
		return ErrNotAuthenticated
	}

	if err := m.checkNewPassword(req); err != nil {
		m.metrics.Inc(MetricPasswordChangeRejected)
		m.emitAudit(ctx, auditPasswordChangeReject, false, id, err, nil)
		return err
	}

	changer, ok := m.auth.(PasswordChanger)
	if !ok {
		return ErrPasswordChangeUnsupported
	}
	if err := changer.ChangePassword(ctx, token, req.Old, req.New); err != nil {
		m.metrics.Inc(MetricPasswordChangeRejected)
		m.emitAudit(ctx, auditPasswordChangeReject, false, id, err, nil)
		return err
	}

	m.RecordPasswordChanged(ctx)
	m.armIdle()

	m.metrics.Inc(MetricPasswordChangeSuccess)
	m.emitAudit(ctx, auditPasswordChange, true, id, nil, nil)
	m.notify(Event{Type: EventPasswordChanged, From: from, To: StateAuthenticated, Identity: id, At: m.clock.Now()})
	return nil
}

func (m *Manager) checkNewPassword(req ChangePasswordRequest) error {
	if req.New != req.Confirm {
		return ErrPasswordMismatch
	}
	if eval := password.Validate(req.New, m.config.Password.Policy); !eval.Valid {
		return &PolicyError{Evaluation: eval}
	}
	if m.config.Password.RejectReuse && req.New == req.Old {
		return ErrPasswordReuse
	}
	return nil
}
