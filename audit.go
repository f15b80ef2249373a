package goAccess

import (
	"context"

	internalaudit "github.com/MrEthical07/goAccess/internal/audit"
)

type (
	AuditEvent     = internalaudit.Event
	AuditSink      = internalaudit.Sink
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	MultiSink      = internalaudit.MultiSink
	AuditStats     = internalaudit.Stats
)

var (
	NewChannelSink    = internalaudit.NewChannelSink
	NewJSONWriterSink = internalaudit.NewJSONWriterSink
)

const (
	auditLoginSuccess          = "login_success"
	auditLoginFailure          = "login_failure"
	auditLoginLockedOut        = "login_locked_out"
	auditLockoutTriggered      = "lockout_triggered"
	auditLogout                = "logout"
	auditIdleLogout            = "idle_logout"
	auditIdentityRefresh       = "identity_refresh"
	auditIdentityRefreshFailed = "identity_refresh_failure"
	auditPasswordChange        = "password_change"
	auditPasswordChangeReject  = "password_change_rejected"
	auditMirrorWriteFailure    = "mirror_write_failure"
	auditLockoutReset          = "lockout_reset"
)

func (m *Manager) emitAudit(ctx context.Context, eventType string, success bool, id *Identity, err error, metadata map[string]string) {
	if m == nil || m.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: m.clock.Now().UTC(),
		EventType: eventType,
		Success:   success,
		Metadata:  metadata,
	}
	if id != nil {
		event.UserID = id.ID
		event.Username = id.Username
		event.Role = string(id.Role)
	}
	if err != nil {
		event.Error = PublicMessage(err)
	}
	m.audit.Emit(ctx, event)
}

// AuditStats reports how many audit events were delivered or dropped.
func (m *Manager) AuditStats() AuditStats {
	if m == nil {
		return AuditStats{}
	}
	return m.audit.Stats()
}
