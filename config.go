package goAccess

import (
	"errors"
	"time"

	"github.com/MrEthical07/goAccess/password"
)

// Config controls a Manager. Build it from DefaultConfig and override the
// fields that differ.
type Config struct {
	Session  SessionConfig
	Lockout  LockoutConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the idle timer and mirror access.
type SessionConfig struct {
	// IdleTimeout logs the session out after this long without activity.
	IdleTimeout time.Duration
	// MirrorTimeout bounds each read or write of the durable mirror.
	MirrorTimeout time.Duration
	// LogoutTimeout bounds the remote logout call made by the idle timer.
	LogoutTimeout time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the failed-login lockout.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls password age and the policy used by
// ChangePassword.
type PasswordConfig struct {
	Policy        password.Policy
	MaxAge        time.Duration
	ExpiryWarning time.Duration
	RejectReuse   bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			MirrorTimeout: 2 * time.Second,
			LogoutTimeout: 5 * time.Second,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  30 * time.Minute,
		},
		Password: PasswordConfig{
			Policy:        password.DefaultPolicy(),
			MaxAge:        90 * 24 * time.Hour,
			ExpiryWarning: 7 * 24 * time.Hour,
			RejectReuse:   true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the production defaults: 30 minute idle timeout,
// lockout for 30 minutes after 5 failures, 90 day password age.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Password.Policy.ForbiddenSubstrings = append([]string(nil), cfg.Password.Policy.ForbiddenSubstrings...)
	return out
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Session
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session IdleTimeout must be > 0")
	}
	if c.Session.MirrorTimeout <= 0 {
		return errors.New("Session MirrorTimeout must be > 0")
	}
	if c.Session.LogoutTimeout <= 0 {
		return errors.New("Session LogoutTimeout must be > 0")
	}

	// Lockout
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}

	// Password
	if err := c.Password.Policy.Validate(); err != nil {
		return err
	}
	if c.Password.MaxAge <= 0 {
		return errors.New("Password MaxAge must be > 0")
	}
	if c.Password.ExpiryWarning < 0 || c.Password.ExpiryWarning >= c.Password.MaxAge {
		return errors.New("Password ExpiryWarning must be >= 0 and < MaxAge")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
