package password

import "time"

const day = 24 * time.Hour

// Expiry describes how close a password is to its maximum age.
type Expiry struct {
	DaysLeft int
	Expiring bool
	Expired  bool
}

// CheckExpiry compares the age of a password changed at lastChange against
// maxAge. Expiring is set while the remaining whole days are positive and
// within warn.
func CheckExpiry(lastChange, now time.Time, maxAge, warn time.Duration) Expiry {
	elapsed := int(now.Sub(lastChange) / day)
	left := int(maxAge/day) - elapsed

	return Expiry{
		DaysLeft: max(0, left),
		Expiring: left > 0 && left <= int(warn/day),
		Expired:  left <= 0,
	}
}
