package goAccess_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/internal/idle"
	"github.com/MrEthical07/goAccess/mock/mock_goaccess"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/session"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"
)

var epoch = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

var alice = goAccess.Identity{
	ID:          "u-1",
	Username:    "2024001",
	DisplayName: "Alice",
	Role:        permission.RoleStudent,
	UnitID:      "c-01",
	UnitName:    "School of Computing",
}

var aliceCreds = goAccess.Credentials{Username: "2024001", Password: "Tr0ub4dor&3"}

type harness struct {
	m      *goAccess.Manager
	auth   *mock_goaccess.MockAuthenticator
	clock  *idle.FakeClock
	mirror *session.MemoryMirror
}

func newHarness(t *testing.T, seed map[string]string) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	h := &harness{
		auth:   mock_goaccess.NewMockAuthenticator(ctrl),
		clock:  idle.NewFakeClock(epoch),
		mirror: session.NewMemoryMirror(),
	}
	ctx := context.Background()
	for k, v := range seed {
		if err := h.mirror.Set(ctx, k, v); err != nil {
			t.Fatalf("seed mirror: %v", err)
		}
	}

	m, err := goAccess.New().
		WithAuthenticator(h.auth).
		WithMirror(h.mirror).
		WithClock(h.clock).
		WithMetricsEnabled(true).
		Build(ctx)
	if err != nil {
		t.Fatalf("build manager: %v", err)
	}
	t.Cleanup(m.Close)
	h.m = m
	return h
}

func (h *harness) login(t *testing.T, id goAccess.Identity) {
	t.Helper()
	h.auth.EXPECT().Login(gomock.Any(), aliceCreds).Return(goAccess.LoginResult{Token: "tok-1", Identity: id}, nil)
	if _, err := h.m.Login(context.Background(), aliceCreds); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	h := newHarness(t, nil)
	first := alice
	first.FirstLogin = true

	h.auth.EXPECT().Login(gomock.Any(), aliceCreds).Return(goAccess.LoginResult{Token: "tok-1", Identity: first}, nil)

	got, err := h.m.Login(context.Background(), aliceCreds)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if diff := cmp.Diff(first, *got); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}

	if !h.m.IsAuthenticated() || h.m.State() != goAccess.StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", h.m.State())
	}
	if h.m.Token() != "tok-1" {
		t.Fatalf("unexpected token %q", h.m.Token())
	}
	if !h.m.NeedsPasswordChange() {
		t.Fatal("first login must force a password change")
	}
	if h.clock.Pending() != 1 {
		t.Fatalf("expected one idle timer, got %d", h.clock.Pending())
	}

	stored := h.mirror.Snapshot()
	if stored[session.KeyToken] != "tok-1" || stored[session.KeyForcePasswordChange] != "true" {
		t.Fatalf("unexpected mirror contents %v", stored)
	}
	if h.m.MetricsSnapshot().Counters[goAccess.MetricLoginSuccess] != 1 {
		t.Fatal("expected login success metric")
	}
}

func TestLoginFailureLockout(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(goAccess.LoginResult{}, goAccess.ErrInvalidCredentials).Times(5)

	for i := 1; i <= 5; i++ {
		_, err := h.m.Login(ctx, goAccess.Credentials{Username: "2024001", Password: "wrong"})
		if err != goAccess.ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected the authenticator error unchanged, got %v", i, err)
		}
		if got := h.m.FailedAttempts(); got != i {
			t.Fatalf("attempt %d: expected %d failures, got %d", i, i, got)
		}
		if i < 5 && h.m.IsLocked() {
			t.Fatalf("attempt %d: locked too early", i)
		}
	}

	if !h.m.IsLocked() || h.m.State() != goAccess.StateLockedOut {
		t.Fatalf("expected locked out, got %v", h.m.State())
	}
	if want := epoch.Add(30 * time.Minute); !h.m.LockoutUntil().Equal(want) {
		t.Fatalf("expected lockout until %v, got %v", want, h.m.LockoutUntil())
	}

	// The sixth attempt must not reach the authenticator.
	h.clock.Advance(29 * time.Minute)
	_, err := h.m.Login(ctx, aliceCreds)
	if !errors.Is(err, goAccess.ErrLockedOut) {
		t.Fatalf("expected ErrLockedOut, got %v", err)
	}
	var lockErr *goAccess.LockoutError
	if !errors.As(err, &lockErr) || lockErr.Remaining(h.clock.Now()) != time.Minute {
		t.Fatalf("expected one minute remaining, got %v", err)
	}

	stored := h.mirror.Snapshot()
	if stored[session.KeyLoginFailCount] != "5" {
		t.Fatalf("expected persisted failure count, got %v", stored)
	}
	if stored[session.KeyLockoutTime] != strconv.FormatInt(epoch.Add(30*time.Minute).UnixMilli(), 10) {
		t.Fatalf("expected persisted lockout time, got %v", stored)
	}

	h.clock.Advance(time.Minute)
	if h.m.IsLocked() {
		t.Fatal("lockout should have expired")
	}
	h.login(t, alice)
	if h.m.FailedAttempts() != 0 || !h.m.LockoutUntil().IsZero() {
		t.Fatal("successful login must reset the failure count and lockout")
	}

	counters := h.m.MetricsSnapshot().Counters
	if counters[goAccess.MetricLoginFailure] != 5 || counters[goAccess.MetricLockoutTriggered] != 1 || counters[goAccess.MetricLoginLockedOut] != 1 {
		t.Fatalf("unexpected counters %v", counters)
	}
}

func TestLoginRejectsConcurrentOperation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	h.auth.EXPECT().Login(gomock.Any(), aliceCreds).DoAndReturn(
		func(context.Context, goAccess.Credentials) (goAccess.LoginResult, error) {
			close(started)
			<-release
			return goAccess.LoginResult{Token: "tok-1", Identity: alice}, nil
		})

	errc := make(chan error, 1)
	go func() {
		_, err := h.m.Login(ctx, aliceCreds)
		errc <- err
	}()

	<-started
	if h.m.State() != goAccess.StateAuthenticating {
		t.Fatalf("expected authenticating, got %v", h.m.State())
	}
	if _, err := h.m.Login(ctx, aliceCreds); !errors.Is(err, goAccess.ErrOperationInProgress) {
		t.Fatalf("expected ErrOperationInProgress, got %v", err)
	}
	if err := h.m.Logout(ctx); !errors.Is(err, goAccess.ErrOperationInProgress) {
		t.Fatalf("expected ErrOperationInProgress for logout, got %v", err)
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("first login: %v", err)
	}
	if !h.m.IsAuthenticated() {
		t.Fatal("expected authenticated after first login")
	}
}

func TestLoginEmptyTokenCountsAsFailure(t *testing.T) {
	h := newHarness(t, nil)

	h.auth.EXPECT().Login(gomock.Any(), aliceCreds).Return(goAccess.LoginResult{Identity: alice}, nil)
	if _, err := h.m.Login(context.Background(), aliceCreds); err == nil {
		t.Fatal("expected empty token to fail")
	}
	if h.m.IsAuthenticated() || h.m.FailedAttempts() != 1 {
		t.Fatal("empty token must not authenticate")
	}
}

func TestRefreshIdentityReplacesIdentity(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t, alice)

	updated := alice
	updated.DisplayName = "Alice Smith"
	updated.Role = permission.RoleTeacher
	h.auth.EXPECT().FetchIdentity(gomock.Any(), "tok-1").Return(updated, nil)

	got, err := h.m.RefreshIdentity(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if diff := cmp.Diff(updated, *got); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}
	if !h.m.HasRole(permission.RoleTeacher) {
		t.Fatal("expected refreshed role")
	}
}

func TestRefreshIdentityFailureLogsOut(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t, alice)

	cause := errors.New("token revoked")
	gomock.InOrder(
		h.auth.EXPECT().FetchIdentity(gomock.Any(), "tok-1").Return(goAccess.Identity{}, cause),
		h.auth.EXPECT().Logout(gomock.Any(), "tok-1").Return(goAccess.LogoutResult{Success: true}, nil),
	)

	_, err := h.m.RefreshIdentity(context.Background())
	if !errors.Is(err, goAccess.ErrSessionExpired) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrSessionExpired wrapping the cause, got %v", err)
	}
	if h.m.IsAuthenticated() || h.m.Token() != "" || h.m.Identity() != nil {
		t.Fatal("session must be cleared after a failed refresh")
	}
	if _, ok := h.mirror.Snapshot()[session.KeyToken]; ok {
		t.Fatal("token must be removed from the mirror")
	}
}

func TestRefreshWithoutToken(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.m.RefreshIdentity(context.Background()); !errors.Is(err, goAccess.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestLogoutClearsSessionOnRemoteFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t, alice)

	remote := errors.New("connection reset")
	h.auth.EXPECT().Logout(gomock.Any(), "tok-1").Return(goAccess.LogoutResult{}, remote)

	err := h.m.Logout(context.Background())
	if !errors.Is(err, goAccess.ErrLogoutFailed) || !errors.Is(err, remote) {
		t.Fatalf("expected ErrLogoutFailed wrapping the remote error, got %v", err)
	}
	if h.m.IsAuthenticated() || h.m.State() != goAccess.StateAnonymous {
		t.Fatalf("expected anonymous, got %v", h.m.State())
	}
	if h.clock.Pending() != 0 {
		t.Fatal("idle timer must be disarmed")
	}
	if _, ok := h.mirror.Snapshot()[session.KeyToken]; ok {
		t.Fatal("token must be removed from the mirror")
	}
}

func TestLogoutRejectedByServer(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t, alice)

	h.auth.EXPECT().Logout(gomock.Any(), "tok-1").Return(goAccess.LogoutResult{Success: false, Message: "session unknown"}, nil)
	if err := h.m.Logout(context.Background()); !errors.Is(err, goAccess.ErrLogoutFailed) {
		t.Fatalf("expected ErrLogoutFailed, got %v", err)
	}
	if h.m.IsAuthenticated() {
		t.Fatal("session must be cleared")
	}
}

func TestLogoutWithoutTokenSkipsRemote(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.m.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
}

func TestIdleTimerLogsOut(t *testing.T) {
	h := newHarness(t, nil)

	var events []goAccess.EventType
	h.m.Subscribe(func(e goAccess.Event) { events = append(events, e.Type) })

	h.login(t, alice)

	h.clock.Advance(29 * time.Minute)
	if !h.m.IsAuthenticated() {
		t.Fatal("session expired too early")
	}
	h.m.Touch()
	if h.clock.Pending() != 1 {
		t.Fatalf("re-arming must leave exactly one timer, got %d", h.clock.Pending())
	}

	h.clock.Advance(29 * time.Minute)
	if !h.m.IsAuthenticated() {
		t.Fatal("touch must restart the idle window")
	}

	h.auth.EXPECT().Logout(gomock.Any(), "tok-1").Return(goAccess.LogoutResult{Success: true}, nil)
	h.clock.Advance(time.Minute)
	if h.m.IsAuthenticated() {
		t.Fatal("expected idle logout")
	}

	want := []goAccess.EventType{goAccess.EventLogin, goAccess.EventIdleLogout}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if h.m.MetricsSnapshot().Counters[goAccess.MetricIdleLogout] != 1 {
		t.Fatal("expected idle logout metric")
	}
}

func TestTouchWhenAnonymousDoesNotArm(t *testing.T) {
	h := newHarness(t, nil)
	h.m.Touch()
	if h.clock.Pending() != 0 {
		t.Fatal("anonymous session must not arm the idle timer")
	}
}

func TestRestoreFromMirror(t *testing.T) {
	changed := epoch.Add(-10 * 24 * time.Hour)
	h := newHarness(t, map[string]string{
		session.KeyToken:              "tok-9",
		session.KeyLastPasswordChange: strconv.FormatInt(changed.UnixMilli(), 10),
		session.KeyLoginFailCount:     "2",
	})

	if h.m.Token() != "tok-9" || h.m.IsAuthenticated() {
		t.Fatal("a persisted token alone must not authenticate")
	}
	if h.m.FailedAttempts() != 2 {
		t.Fatalf("expected 2 persisted failures, got %d", h.m.FailedAttempts())
	}
	if h.m.NeedsPasswordChange() {
		t.Fatal("password changed ten days ago must not need a change")
	}

	h.auth.EXPECT().FetchIdentity(gomock.Any(), "tok-9").Return(alice, nil)
	if _, err := h.m.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !h.m.IsAuthenticated() {
		t.Fatal("expected authenticated after restore")
	}
	if exp := h.m.PasswordExpiry(); exp.DaysLeft != 80 || exp.Expiring || exp.Expired {
		t.Fatalf("unexpected expiry %+v", exp)
	}
}

func TestRestoreWithoutToken(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.m.Restore(context.Background()); !errors.Is(err, goAccess.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestPasswordAge(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if !h.m.NeedsPasswordChange() {
		t.Fatal("missing change time must need a change")
	}

	h.m.RecordPasswordChanged(ctx)
	if h.m.NeedsPasswordChange() {
		t.Fatal("fresh password must not need a change")
	}
	if got := h.mirror.Snapshot()[session.KeyLastPasswordChange]; got != strconv.FormatInt(epoch.UnixMilli(), 10) {
		t.Fatalf("unexpected persisted change time %q", got)
	}

	h.clock.Advance(85 * 24 * time.Hour)
	if exp := h.m.PasswordExpiry(); !exp.Expiring || exp.DaysLeft != 5 {
		t.Fatalf("expected expiry warning, got %+v", exp)
	}

	h.clock.Advance(5 * 24 * time.Hour)
	if !h.m.NeedsPasswordChange() {
		t.Fatal("password at max age must need a change")
	}
}

func TestResetLockout(t *testing.T) {
	h := newHarness(t, map[string]string{
		session.KeyLoginFailCount: "5",
		session.KeyLockoutTime:    strconv.FormatInt(epoch.Add(time.Hour).UnixMilli(), 10),
	})
	if !h.m.IsLocked() {
		t.Fatal("persisted lockout must survive a restart")
	}

	h.m.ResetLockout(context.Background())
	if h.m.IsLocked() || h.m.FailedAttempts() != 0 {
		t.Fatal("expected lockout cleared")
	}
	if _, ok := h.mirror.Snapshot()[session.KeyLockoutTime]; ok {
		t.Fatal("lockout time must be removed from the mirror")
	}
}

func TestAccessQueries(t *testing.T) {
	if goAccess.HasPermission(nil, nil, permission.DashboardView) {
		t.Fatal("nil identity must not have permissions")
	}
	if goAccess.HasRole(nil, permission.RoleStudent) {
		t.Fatal("nil identity must not have roles")
	}

	h := newHarness(t, nil)
	if h.m.HasPermission(permission.DashboardView) || h.m.Permissions().Len() != 0 {
		t.Fatal("anonymous session must not have permissions")
	}

	h.login(t, alice)
	if !h.m.HasPermission(permission.StudentDelete, permission.ProfileView) {
		t.Fatal("any-of check must pass when one permission is held")
	}
	if h.m.HasPermission(permission.StudentDelete) {
		t.Fatal("student must not delete students")
	}
	if !h.m.HasRole(permission.RoleTeacher, permission.RoleStudent) || h.m.HasRole(permission.RoleSystemAdmin) {
		t.Fatal("unexpected role check result")
	}
	if !h.m.Permissions().Has(permission.PasswordChange) {
		t.Fatal("expected password change permission")
	}
}

func TestSessionInvariantOnEveryTransition(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	check := func(e goAccess.Event) {
		s := h.m.Snapshot()
		if s.Authenticated != (s.Token != "" && s.Identity != nil) {
			t.Errorf("%s: authenticated=%v token=%q identity=%v", e.Type, s.Authenticated, s.Token, s.Identity)
		}
	}
	h.m.Subscribe(check)

	h.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(goAccess.LoginResult{}, goAccess.ErrInvalidCredentials)
	_, _ = h.m.Login(ctx, aliceCreds)
	h.login(t, alice)
	h.auth.EXPECT().FetchIdentity(gomock.Any(), "tok-1").Return(goAccess.Identity{}, errors.New("boom"))
	h.auth.EXPECT().Logout(gomock.Any(), "tok-1").Return(goAccess.LogoutResult{Success: true}, nil)
	_, _ = h.m.RefreshIdentity(ctx)
	_ = h.m.Logout(ctx)
}

func TestSubscribeCancel(t *testing.T) {
	h := newHarness(t, nil)

	calls := 0
	cancel := h.m.Subscribe(func(goAccess.Event) { calls++ })
	h.m.ResetLockout(context.Background())
	cancel()
	h.m.ResetLockout(context.Background())

	if calls != 1 {
		t.Fatalf("expected one notification, got %d", calls)
	}
}

func TestClosedManagerRejectsOperations(t *testing.T) {
	h := newHarness(t, nil)
	h.m.Close()

	if _, err := h.m.Login(context.Background(), aliceCreds); !errors.Is(err, goAccess.ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
}
