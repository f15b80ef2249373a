package password

import (
	"time"

	"github.com/MrEthical07/goAccess/crypt"
)

const (
	resetTokenBytes = 64

	// DefaultResetTTL is how long a reset token stays usable.
	DefaultResetTTL = 24 * time.Hour
)

// ResetToken is a one-time password reset credential.
type ResetToken struct {
	Token   string
	Expires time.Time
}

// NewResetToken returns a random token valid for ttl from now.
func NewResetToken(now time.Time, ttl time.Duration) (ResetToken, error) {
	tok, err := crypt.RandomHex(resetTokenBytes)
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{Token: tok, Expires: now.Add(ttl)}, nil
}

// Valid reports whether the token is well formed and unexpired at now.
func (t ResetToken) Valid(now time.Time) bool {
	return now.Before(t.Expires) && len(t.Token) == 2*resetTokenBytes
}
