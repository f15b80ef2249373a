package session

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrMirrorUnavailable is returned when the backing store cannot be reached
// or its contents cannot be read.
var ErrMirrorUnavailable = errors.New("session mirror unavailable")

// Persisted field names.
const (
	KeyToken               = "token"
	KeyLastPasswordChange  = "lastPasswordChangeTime"
	KeyForcePasswordChange = "forcePasswordChange"
	KeyLoginFailCount      = "loginFailCount"
	KeyLockoutTime         = "lockoutTime"
)

// Keys lists every persisted field.
var Keys = []string{KeyToken, KeyLastPasswordChange, KeyForcePasswordChange, KeyLoginFailCount, KeyLockoutTime}

// Mirror is a durable string key-value store.
type Mirror interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Batcher is implemented by mirrors that can apply several writes at once.
type Batcher interface {
	Apply(ctx context.Context, set map[string]string, del []string) error
}

// Persisted is the durable part of a session.
type Persisted struct {
	Token               string
	LastPasswordChange  time.Time
	ForcePasswordChange bool
	FailedAttempts      int
	LockoutUntil        time.Time
}

// Load reads every persisted field from m. Missing or unparsable values
// load as their zero value.
func Load(ctx context.Context, m Mirror) (Persisted, error) {
	var p Persisted

	values := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, ok, err := m.Get(ctx, k)
		if err != nil {
			return Persisted{}, err
		}
		if ok {
			values[k] = v
		}
	}

	p.Token = values[KeyToken]
	p.LastPasswordChange = parseMillis(values[KeyLastPasswordChange])
	p.ForcePasswordChange = values[KeyForcePasswordChange] == "true"
	if n, err := strconv.Atoi(values[KeyLoginFailCount]); err == nil && n > 0 {
		p.FailedAttempts = n
	}
	p.LockoutUntil = parseMillis(values[KeyLockoutTime])
	return p, nil
}

// Save writes p to m. Zero-valued token and lockout fields are deleted
// rather than stored.
func Save(ctx context.Context, m Mirror, p Persisted) error {
	set := map[string]string{
		KeyLastPasswordChange:  formatMillis(p.LastPasswordChange),
		KeyForcePasswordChange: strconv.FormatBool(p.ForcePasswordChange),
		KeyLoginFailCount:      strconv.Itoa(p.FailedAttempts),
	}
	var del []string
	if p.Token != "" {
		set[KeyToken] = p.Token
	} else {
		del = append(del, KeyToken)
	}
	if !p.LockoutUntil.IsZero() {
		set[KeyLockoutTime] = formatMillis(p.LockoutUntil)
	} else {
		del = append(del, KeyLockoutTime)
	}

	if b, ok := m.(Batcher); ok {
		return b.Apply(ctx, set, del)
	}
	for _, k := range Keys {
		if v, ok := set[k]; ok {
			if err := m.Set(ctx, k, v); err != nil {
				return err
			}
		}
	}
	if len(del) > 0 {
		return m.Delete(ctx, del...)
	}
	return nil
}

// Clear removes every persisted field.
func Clear(ctx context.Context, m Mirror) error {
	return m.Delete(ctx, Keys...)
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func formatMillis(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}
