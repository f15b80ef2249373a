package goAccess

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccess/crypt"
	"github.com/MrEthical07/goAccess/password"
	"github.com/MrEthical07/goAccess/session"
)

var (
	// ErrInvalidCredentials is returned by authenticators for a bad
	// username or password. It counts towards lockout.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLockedOut is matched by every *LockoutError.
	ErrLockedOut = errors.New("account temporarily locked")
	// ErrSessionExpired is returned when the identity refresh fails and the
	// session has been logged out.
	ErrSessionExpired = errors.New("session expired")
	// ErrOperationInProgress rejects an authentication operation started while
	// another one is still waiting on the authenticator.
	ErrOperationInProgress = errors.New("authentication operation already in progress")
	ErrNotAuthenticated    = errors.New("not authenticated")
	// ErrLogoutFailed wraps a remote logout failure. Local cleanup has
	// already happened when it is returned.
	ErrLogoutFailed = errors.New("remote logout failed")
	// ErrPasswordPolicy is matched by every *PolicyError.
	ErrPasswordPolicy            = errors.New("password policy violation")
	ErrPasswordMismatch          = errors.New("password confirmation does not match")
	ErrPasswordReuse             = errors.New("new password must be different from current password")
	ErrPasswordChangeUnsupported = errors.New("authenticator does not support password change")
	ErrManagerClosed             = errors.New("session manager closed")
	ErrMirrorUnavailable         = session.ErrMirrorUnavailable
)

// LockoutError reports an active lockout and when it ends.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s until %s", ErrLockedOut.Error(), e.Until.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrLockedOut) true.
func (e *LockoutError) Is(target error) bool {
	return target == ErrLockedOut
}

// Remaining returns the lockout time left at now, rounded up to whole
// minutes as shown to users.
func (e *LockoutError) Remaining(now time.Time) time.Duration {
	d := e.Until.Sub(now)
	if d <= 0 {
		return 0
	}
	return (d + time.Minute - 1).Truncate(time.Minute)
}

// PolicyError carries the evaluation that rejected a new password.
type PolicyError struct {
	Evaluation password.Evaluation
}

func (e *PolicyError) Error() string {
	msgs := e.Evaluation.Messages()
	if len(msgs) == 0 {
		return ErrPasswordPolicy.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPasswordPolicy.Error(), msgs[0])
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrPasswordPolicy
}

const genericFailure = "operation failed"

// verbatim lists errors whose text is shown to users unchanged.
var verbatim = []error{
	ErrSessionExpired,
	ErrInvalidCredentials,
	ErrLockedOut,
	ErrOperationInProgress,
	ErrNotAuthenticated,
	ErrPasswordMismatch,
	ErrPasswordReuse,
	ErrPasswordChangeUnsupported,
}

// PublicMessage maps err to text that is safe to show a user. Credential,
// lockout and password errors keep their reason. Everything else, crypto
// failures included, becomes a generic message.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, crypt.ErrInvalidKey) || errors.Is(err, crypt.ErrDecryption) {
		return genericFailure
	}

	var lockErr *LockoutError
	if errors.As(err, &lockErr) {
		return lockErr.Error()
	}
	var policyErr *PolicyError
	if errors.As(err, &policyErr) {
		return policyErr.Error()
	}
	for _, sentinel := range verbatim {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return genericFailure
}
