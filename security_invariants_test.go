package goAccess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goAccess/crypt"
	"github.com/MrEthical07/goAccess/session"
)

// countingAuth counts calls that reach the authenticator.
type countingAuth struct {
	*fakeAuth
	logins  atomic.Int32
	fetches atomic.Int32
}

func (c *countingAuth) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	c.logins.Add(1)
	return c.fakeAuth.Login(ctx, creds)
}

func (c *countingAuth) FetchIdentity(ctx context.Context, token string) (Identity, error) {
	c.fetches.Add(1)
	return c.fakeAuth.FetchIdentity(ctx, token)
}

func TestSecurityInvariantLockedLoginNeverReachesAuthenticator(t *testing.T) {
	auth := &countingAuth{fakeAuth: &fakeAuth{password: "Tr0ub4dor&3"}}
	m, clock := newTestManager(t, auth, nil)
	ctx := context.Background()

	threshold := DefaultConfig().Lockout.Threshold
	for i := 0; i < threshold; i++ {
		_, _ = m.Login(ctx, Credentials{Username: "2024001", Password: "wrong"})
	}
	if got := int(auth.logins.Load()); got != threshold {
		t.Fatalf("expected %d authenticator calls, got %d", threshold, got)
	}

	for i := 0; i < 3; i++ {
		_, err := m.Login(ctx, Credentials{Username: "2024001", Password: "Tr0ub4dor&3"})
		var lockErr *LockoutError
		if !errors.As(err, &lockErr) {
			t.Fatalf("expected *LockoutError, got %v", err)
		}
		clock.Advance(time.Minute)
	}
	if got := int(auth.logins.Load()); got != threshold {
		t.Fatalf("locked logins reached the authenticator: %d calls", got)
	}
	if m.FailedAttempts() != threshold {
		t.Fatalf("locked attempts must not change the failure count, got %d", m.FailedAttempts())
	}

	clock.Advance(DefaultConfig().Lockout.Duration)
	if _, err := m.Login(ctx, Credentials{Username: "2024001", Password: "Tr0ub4dor&3"}); err != nil {
		t.Fatalf("login after lockout expiry: %v", err)
	}
}

func TestSecurityInvariantPublicMessageHidesInternals(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("decrypt token: %w", crypt.ErrDecryption), genericFailure},
		{fmt.Errorf("%w: bad padding", crypt.ErrInvalidKey), genericFailure},
		{errors.New("dial tcp 10.0.0.7:6379: connection refused"), genericFailure},
		{fmt.Errorf("%w: %w", ErrSessionExpired, errors.New("jwt: signature is invalid")), ErrSessionExpired.Error()},
		{fmt.Errorf("remote: %w", ErrInvalidCredentials), ErrInvalidCredentials.Error()},
		{ErrPasswordReuse, ErrPasswordReuse.Error()},
		{nil, ""},
	}
	for _, tc := range cases {
		got := PublicMessage(tc.err)
		if got != tc.want {
			t.Fatalf("PublicMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
		if tc.err != nil && strings.Contains(got, "10.0.0.7") {
			t.Fatalf("address leaked in %q", got)
		}
	}
}

func TestSecurityInvariantIdentityIsNeverPersisted(t *testing.T) {
	mirror := session.NewMemoryMirror()
	m, _ := newTestManager(t, &fakeAuth{password: "Tr0ub4dor&3"}, mirror)
	ctx := context.Background()

	if _, err := m.Login(ctx, Credentials{Username: "2024001", Password: "Tr0ub4dor&3"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	known := make(map[string]bool, len(session.Keys))
	for _, k := range session.Keys {
		known[k] = true
	}
	for k, v := range mirror.Snapshot() {
		if !known[k] {
			t.Fatalf("unexpected mirror key %q", k)
		}
		if strings.Contains(v, "2024001") || strings.Contains(v, "u-1") {
			t.Fatalf("identity persisted under %q: %q", k, v)
		}
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := mirror.Snapshot()[session.KeyToken]; ok {
		t.Fatal("token left in mirror after logout")
	}
}

func TestSecurityInvariantIdleDuringOperationDoesNotLogOut(t *testing.T) {
	auth := newBlockingAuth()
	m, clock := newTestManager(t, auth, nil)
	ctx := context.Background()
	if _, err := m.Login(ctx, Credentials{Username: "2024001", Password: "Tr0ub4dor&3"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.RefreshIdentity(ctx)
		done <- err
	}()
	<-auth.entered

	clock.Advance(DefaultConfig().Session.IdleTimeout)
	if clock.Pending() == 0 {
		t.Fatal("idle timer must be re-armed while an operation is in flight")
	}

	close(auth.release)
	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !m.IsAuthenticated() {
		t.Fatal("idle timer logged out during an operation")
	}
	if auth.logouts != 0 {
		t.Fatalf("unexpected remote logout, calls=%d", auth.logouts)
	}
}

func TestSecurityInvariantClosedManagerIgnoresIdleTimer(t *testing.T) {
	auth := &fakeAuth{password: "Tr0ub4dor&3"}
	m, clock := newTestManager(t, auth, nil)
	ctx := context.Background()
	if _, err := m.Login(ctx, Credentials{Username: "2024001", Password: "Tr0ub4dor&3"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	m.Close()

	clock.Advance(2 * DefaultConfig().Session.IdleTimeout)
	if auth.logouts != 0 {
		t.Fatalf("closed manager called the authenticator, calls=%d", auth.logouts)
	}
	if _, err := m.Login(ctx, Credentials{Username: "2024001", Password: "Tr0ub4dor&3"}); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
}
