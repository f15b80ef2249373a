package goAccess

import (
	"time"

	"github.com/MrEthical07/goAccess/internal/idle"
	"github.com/MrEthical07/goAccess/password"
	"github.com/MrEthical07/goAccess/permission"
)

// Identity is the authenticated user's resolved profile. It is replaced
// wholesale on every login and identity refresh.
type Identity struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"displayName"`
	Role        permission.Role `json:"role"`
	UnitID      string          `json:"unitId,omitempty"`
	UnitName    string          `json:"unitName,omitempty"`
	FirstLogin  bool            `json:"firstLogin"`
	Avatar      string          `json:"avatar,omitempty"`
}

// Credentials are the username and password submitted at login.
type Credentials struct {
	Username string
	Password string
}

// LoginResult is what an Authenticator returns for valid credentials.
type LoginResult struct {
	Token    string
	Identity Identity
}

// LogoutResult is the remote logout acknowledgement.
type LogoutResult struct {
	Success bool
	Message string
}

// ChangePasswordRequest is the input of Manager.ChangePassword.
type ChangePasswordRequest struct {
	Old     string
	New     string
	Confirm string
}

// Clock abstracts time for the idle timer and lockout checks.
type Clock = idle.Clock

// State is the session state machine position.
type State uint8

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateLockedOut
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateLockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session taken under one lock.
type Snapshot struct {
	State               State
	Authenticated       bool
	Token               string
	Identity            *Identity
	LastPasswordChange  time.Time
	ForcePasswordChange bool
	NeedsPasswordChange bool
	PasswordExpiry      password.Expiry
	FailedAttempts      int
	LockoutUntil        time.Time
	Locked              bool
}

// EventType names a session transition.
type EventType string

const (
	EventLogin           EventType = "login"
	EventLoginFailed     EventType = "login_failed"
	EventLockedOut       EventType = "locked_out"
	EventLogout          EventType = "logout"
	EventIdleLogout      EventType = "idle_logout"
	EventIdentityRefresh EventType = "identity_refresh"
	EventSessionExpired  EventType = "session_expired"
	EventPasswordChanged EventType = "password_changed"
	EventLockoutReset    EventType = "lockout_reset"
)

// Event is delivered to subscribers after a transition has been applied.
type Event struct {
	Type     EventType
	From     State
	To       State
	Identity *Identity
	At       time.Time
	Err      error
}
