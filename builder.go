package goAccess

import (
	"context"
	"errors"
	"log"

	internalaudit "github.com/MrEthical07/goAccess/internal/audit"
	"github.com/MrEthical07/goAccess/internal/idle"
	"github.com/MrEthical07/goAccess/internal/lockout"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/session"
)

// Builder assembles a Manager. A Builder can be built once.
type Builder struct {
	config Config

	auth      Authenticator
	mirror    session.Mirror
	resolver  *permission.Resolver
	clock     Clock
	auditSink AuditSink

	built bool
}

// New returns a Builder with DefaultConfig, an in-memory mirror, the
// default permission table and the system clock.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAuthenticator sets the authentication service. Required.
func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.auth = a
	return b
}

// WithMirror sets the durable session mirror.
func (b *Builder) WithMirror(m session.Mirror) *Builder {
	b.mirror = m
	return b
}

// WithResolver sets the resolver used for permission checks.
func (b *Builder) WithResolver(r *permission.Resolver) *Builder {
	b.resolver = r
	return b
}

// WithClock overrides time for the idle timer and lockout checks.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithAuditSink enables audit events and delivers them to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, reads the mirror and returns the
// Manager. A persisted token is loaded without an identity; call
// Manager.Restore to fetch it. An unreadable mirror is logged and the
// session starts from defaults.
func (b *Builder) Build(ctx context.Context) (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.auth == nil {
		return nil, errors.New("authenticator required")
	}

	m := &Manager{
		config:   cfg,
		auth:     b.auth,
		resolver: b.resolver,
		mirror:   b.mirror,
		clock:    b.clock,
	}
	if m.resolver == nil {
		m.resolver = permission.Default()
	}
	if m.mirror == nil {
		m.mirror = session.NewMemoryMirror()
	}
	if m.clock == nil {
		m.clock = idle.SystemClock{}
	}
	m.idle = idle.New(m.clock)
	m.metrics = NewMetrics(cfg.Metrics)
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Session.MirrorTimeout)
	defer cancel()
	p, err := session.Load(loadCtx, m.mirror)
	if err != nil {
		log.Printf("goAccess: mirror read failed, starting anonymous: %v", err)
	}
	m.token = p.Token
	m.lastPasswordChange = p.LastPasswordChange
	m.forcePasswordChange = p.ForcePasswordChange
	m.lock = lockout.State{Failures: p.FailedAttempts, Until: p.LockoutUntil}

	b.built = true
	return m, nil
}
