package goAccess

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	internalaudit "github.com/MrEthical07/goAccess/internal/audit"
	"github.com/MrEthical07/goAccess/internal/idle"
	"github.com/MrEthical07/goAccess/internal/lockout"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/session"
)

var errEmptyToken = errors.New("authenticator returned an empty token")

// Manager owns one client session: token, identity, failed-login lockout,
// password age and the idle timer. It is built by Builder.Build.
//
// Session fields are guarded by a mutex and no lock is held while the
// Authenticator or the mirror is called. Login, RefreshIdentity, Logout and
// ChangePassword are mutually exclusive: starting one while another is
// waiting on the Authenticator returns ErrOperationInProgress.
type Manager struct {
	config   Config
	auth     Authenticator
	resolver *permission.Resolver
	mirror   session.Mirror
	clock    Clock
	idle     *idle.Timer
	audit    *internalaudit.Dispatcher
	metrics  *Metrics

	busy      atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once

	// saveMu orders mirror writes so the last write carries the latest state.
	saveMu sync.Mutex

	mu                  sync.Mutex
	authenticating      bool
	token               string
	identity            *Identity
	lastPasswordChange  time.Time
	forcePasswordChange bool
	lock                lockout.State

	obsMu     sync.Mutex
	obsNext   int
	observers map[int]func(Event)
}

func (m *Manager) lockoutConfig() lockout.Config {
	return lockout.Config{
		Threshold: m.config.Lockout.Threshold,
		Duration:  m.config.Lockout.Duration,
	}
}

// begin claims the single in-flight operation slot.
func (m *Manager) begin() (func(), error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	if !m.busy.CompareAndSwap(false, true) {
		return nil, ErrOperationInProgress
	}
	return func() { m.busy.Store(false) }, nil
}

// Login authenticates creds. While a lockout is in force it returns a
// *LockoutError without calling the Authenticator. A failed attempt
// increments the failure count by one, starts a lockout once the threshold
// is reached, and returns the Authenticator's error unchanged.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Identity, error) {
	done, err := m.begin()
	if err != nil {
		return nil, err
	}
	defer done()

	now := m.clock.Now()
	m.mu.Lock()
	if m.lock.Locked(now) {
		until := m.lock.Until
		m.mu.Unlock()

		m.metrics.Inc(MetricLoginLockedOut)
		m.emitAudit(ctx, auditLoginLockedOut, false, nil, ErrLockedOut, map[string]string{"username": creds.Username})
		return nil, &LockoutError{Until: until}
	}
	from := m.stateLocked(now)
	m.authenticating = true
	m.mu.Unlock()

	res, err := m.auth.Login(ctx, creds)
	m.metrics.Observe(MetricLoginLatency, m.clock.Now().Sub(now))
	if err == nil && res.Token == "" {
		err = errEmptyToken
	}
	if err != nil {
		m.loginFailed(ctx, creds.Username, from, err)
		return nil, err
	}

	id := res.Identity
	m.mu.Lock()
	m.authenticating = false
	m.token = res.Token
	m.identity = &id
	m.lock.Reset()
	m.forcePasswordChange = id.FirstLogin
	m.mu.Unlock()

	m.armIdle()
	m.persist(ctx)

	m.metrics.Inc(MetricLoginSuccess)
	m.emitAudit(ctx, auditLoginSuccess, true, &id, nil, nil)
	m.notify(Event{Type: EventLogin, From: from, To: StateAuthenticated, Identity: cloneIdentity(&id), At: m.clock.Now()})

	out := id
	return &out, nil
}

func (m *Manager) loginFailed(ctx context.Context, username string, from State, cause error) {
	now := m.clock.Now()
	m.mu.Lock()
	m.authenticating = false
	triggered := m.lock.RecordFailure(now, m.lockoutConfig())
	failures := m.lock.Failures
	until := m.lock.Until
	to := m.stateLocked(now)
	m.mu.Unlock()

	m.persist(ctx)

	m.metrics.Inc(MetricLoginFailure)
	metadata := map[string]string{
		"username": username,
		"failures": strconv.Itoa(failures),
	}
	m.emitAudit(ctx, auditLoginFailure, false, nil, cause, metadata)

	event := Event{Type: EventLoginFailed, From: from, To: to, At: now, Err: cause}
	if triggered {
		m.metrics.Inc(MetricLockoutTriggered)
		m.emitAudit(ctx, auditLockoutTriggered, false, nil, nil, map[string]string{
			"username": username,
			"until":    until.UTC().Format(time.RFC3339),
		})
		event.Type = EventLockedOut
	}
	m.notify(event)
}

// RefreshIdentity fetches the identity for the current token and replaces
// the stored one. Any failure logs the session out first and then returns
// an error matching both ErrSessionExpired and the cause.
func (m *Manager) RefreshIdentity(ctx context.Context) (*Identity, error) {
	done, err := m.begin()
	if err != nil {
		return nil, err
	}
	defer done()

	m.mu.Lock()
	token := m.token
	from := m.stateLocked(m.clock.Now())
	m.mu.Unlock()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	id, err := m.auth.FetchIdentity(ctx, token)
	if err != nil {
		m.metrics.Inc(MetricRefreshFailure)
		m.emitAudit(ctx, auditIdentityRefreshFailed, false, m.Identity(), err, nil)
		if lerr := m.logout(ctx, EventSessionExpired, err); lerr != nil {
			log.Printf("goAccess: forced logout after refresh failure: %v", lerr)
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	m.mu.Lock()
	m.identity = &id
	m.mu.Unlock()

	m.armIdle()
	m.metrics.Inc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditIdentityRefresh, true, &id, nil, nil)
	m.notify(Event{Type: EventIdentityRefresh, From: from, To: StateAuthenticated, Identity: cloneIdentity(&id), At: m.clock.Now()})

	out := id
	return &out, nil
}

// Restore completes a session reloaded from the mirror. The mirror keeps
// only the token, so the identity is fetched again. It returns
// ErrNotAuthenticated when no token was persisted.
func (m *Manager) Restore(ctx context.Context) (*Identity, error) {
	if m.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	return m.RefreshIdentity(ctx)
}

// Logout ends the session. The remote call is best effort and skipped
// when there is no token. Token and identity are cleared, the mirror is
// written and the idle timer is stopped on every path. A remote failure is
// returned afterwards wrapped in ErrLogoutFailed.
func (m *Manager) Logout(ctx context.Context) error {
	done, err := m.begin()
	if err != nil {
		return err
	}
	defer done()
	return m.logout(ctx, EventLogout, nil)
}

// Expire ends a session the server no longer accepts, for example after an
// outbound request was answered with 401. It behaves like Logout but the
// transition is reported as EventSessionExpired. A token reloaded from the
// mirror but not yet restored is cleared too.
func (m *Manager) Expire(ctx context.Context) error {
	done, err := m.begin()
	if err != nil {
		return err
	}
	defer done()
	if m.Token() == "" {
		return nil
	}
	return m.logout(ctx, EventSessionExpired, ErrSessionExpired)
}

func (m *Manager) logout(ctx context.Context, reason EventType, cause error) (err error) {
	m.mu.Lock()
	token := m.token
	prev := m.identity
	from := m.stateLocked(m.clock.Now())
	m.mu.Unlock()

	defer func() {
		m.idle.Stop()

		m.mu.Lock()
		m.token = ""
		m.identity = nil
		to := m.stateLocked(m.clock.Now())
		m.mu.Unlock()

		m.persist(ctx)

		m.metrics.Inc(MetricLogout)
		auditType := auditLogout
		if reason == EventIdleLogout {
			auditType = auditIdleLogout
		}
		m.emitAudit(ctx, auditType, err == nil, prev, err, map[string]string{"reason": string(reason)})

		evErr := cause
		if evErr == nil {
			evErr = err
		}
		m.notify(Event{Type: reason, From: from, To: to, Identity: cloneIdentity(prev), At: m.clock.Now(), Err: evErr})
	}()

	if token == "" {
		return nil
	}

	res, rerr := m.auth.Logout(ctx, token)
	if rerr == nil && !res.Success {
		rerr = fmt.Errorf("logout rejected: %s", res.Message)
	}
	if rerr != nil {
		m.metrics.Inc(MetricLogoutRemoteFailure)
		return fmt.Errorf("%w: %w", ErrLogoutFailed, rerr)
	}
	return nil
}

// Touch records activity and re-arms the idle timer. It does nothing
// unless the session is authenticated.
func (m *Manager) Touch() {
	if m.IsAuthenticated() {
		m.armIdle()
	}
}

func (m *Manager) armIdle() {
	m.idle.Arm(m.config.Session.IdleTimeout, m.onIdle)
}

func (m *Manager) onIdle() {
	done, err := m.begin()
	if err != nil {
		// An operation in flight counts as activity.
		if errors.Is(err, ErrOperationInProgress) {
			m.armIdle()
		}
		return
	}
	defer done()

	if !m.IsAuthenticated() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.config.Session.LogoutTimeout)
	defer cancel()

	m.metrics.Inc(MetricIdleLogout)
	if err := m.logout(ctx, EventIdleLogout, nil); err != nil {
		log.Printf("goAccess: idle logout: %v", err)
	}
}

// ResetLockout clears the failure count and any lockout.
func (m *Manager) ResetLockout(ctx context.Context) {
	now := m.clock.Now()
	m.mu.Lock()
	from := m.stateLocked(now)
	m.lock.Reset()
	to := m.stateLocked(now)
	m.mu.Unlock()

	m.persist(ctx)
	m.emitAudit(ctx, auditLockoutReset, true, nil, nil, nil)
	m.notify(Event{Type: EventLockoutReset, From: from, To: to, At: now})
}

// persist writes the mirrored fields. Failures are logged and counted;
// they never fail the calling operation.
func (m *Manager) persist(ctx context.Context) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	p := session.Persisted{
		Token:               m.token,
		LastPasswordChange:  m.lastPasswordChange,
		ForcePasswordChange: m.forcePasswordChange,
		FailedAttempts:      m.lock.Failures,
		LockoutUntil:        m.lock.Until,
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.Session.MirrorTimeout)
	defer cancel()

	if err := session.Save(ctx, m.mirror, p); err != nil {
		log.Printf("goAccess: mirror write failed: %v", err)
		m.metrics.Inc(MetricMirrorWriteFailure)
		m.emitAudit(ctx, auditMirrorWriteFailure, false, nil, err, nil)
	}
}

// Close stops the idle timer and drains the audit dispatcher. Later
// operations return ErrManagerClosed.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.idle.Stop()
		m.audit.Close()
	})
}

// MetricsSnapshot returns a copy of the session counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return m.metrics.Snapshot()
}

func cloneIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}
