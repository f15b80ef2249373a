package lockout

import "time"

// Config sets when a lockout starts and how long it lasts.
type Config struct {
	Threshold int
	Duration  time.Duration
}

// State is a failure counter with an optional lockout deadline. The zero
// value is unlocked with no failures. State is not safe for concurrent use.
type State struct {
	Failures int
	Until    time.Time
}

// Locked reports whether a lockout is in force at now.
func (s State) Locked(now time.Time) bool {
	return !s.Until.IsZero() && now.Before(s.Until)
}

// Remaining returns how long the lockout still lasts at now.
func (s State) Remaining(now time.Time) time.Duration {
	if !s.Locked(now) {
		return 0
	}
	return s.Until.Sub(now)
}

// RecordFailure counts one failed attempt and reports whether it started a
// lockout. The counter keeps growing after an expired lockout, so the next
// failure locks again immediately.
func (s *State) RecordFailure(now time.Time, cfg Config) bool {
	s.Failures++
	if cfg.Threshold > 0 && s.Failures >= cfg.Threshold {
		s.Until = now.Add(cfg.Duration)
		return true
	}
	return false
}

// Reset clears the counter and any lockout.
func (s *State) Reset() {
	s.Failures = 0
	s.Until = time.Time{}
}
