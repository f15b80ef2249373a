package idle

import (
	"sync"
	"time"
)

// Timer runs a callback once after a period of inactivity. At most one
// callback is pending; re-arming replaces it. A generation counter makes a
// callback that was already in flight when it was replaced a no-op.
type Timer struct {
	clock Clock

	mu      sync.Mutex
	gen     uint64
	pending Stopper
}

// New returns a disarmed timer. A nil clock means the system clock.
func New(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Timer{clock: clock}
}

// Arm cancels any pending callback and schedules fire after d.
func (t *Timer) Arm(d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	gen := t.gen
	t.pending = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.gen++
		t.pending = nil
		t.mu.Unlock()

		fire()
	})
}

// Stop cancels the pending callback. Stopping a fired or disarmed timer
// does nothing.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Pending reports whether a callback is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *Timer) stopLocked() {
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
