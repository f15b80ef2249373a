package idle

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := New(clock)

	var fired atomic.Int32
	timer.Arm(30*time.Minute, func() { fired.Add(1) })

	clock.Advance(29 * time.Minute)
	if fired.Load() != 0 {
		t.Fatal("fired early")
	}
	clock.Advance(time.Minute)
	if fired.Load() != 1 {
		t.Fatalf("expected one fire, got %d", fired.Load())
	}
	if timer.Pending() {
		t.Fatal("expected no pending callback after fire")
	}
	clock.Advance(time.Hour)
	if fired.Load() != 1 {
		t.Fatal("single-shot timer fired twice")
	}
}

func TestTimerRearmReplacesPending(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := New(clock)

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		timer.Arm(30*time.Minute, func() { fired.Add(1) })
		clock.Advance(20 * time.Minute)
	}
	if fired.Load() != 0 {
		t.Fatal("re-armed timer must not fire")
	}
	if clock.Pending() != 1 {
		t.Fatalf("expected exactly one pending callback, got %d", clock.Pending())
	}
	clock.Advance(10 * time.Minute)
	if fired.Load() != 1 {
		t.Fatalf("expected one fire, got %d", fired.Load())
	}
}

func TestTimerStopIsIdempotent(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := New(clock)

	timer.Stop()
	timer.Arm(time.Minute, func() { t.Fatal("stopped timer fired") })
	timer.Stop()
	timer.Stop()
	clock.Advance(time.Hour)

	timer.Arm(time.Minute, func() {})
	clock.Advance(time.Minute)
	timer.Stop()
}

func TestStaleCallbackIsNoOp(t *testing.T) {
	var captured func()
	timer := New(captureClock{fn: func(f func()) { captured = f }})

	var fired atomic.Int32
	timer.Arm(time.Minute, func() { fired.Add(1) })
	stale := captured
	timer.Arm(time.Minute, func() { fired.Add(10) })

	stale()
	if fired.Load() != 0 {
		t.Fatal("stale callback must not run the handler")
	}
	captured()
	if fired.Load() != 10 {
		t.Fatalf("expected current callback to run, got %d", fired.Load())
	}
}

type captureClock struct {
	fn func(func())
}

func (captureClock) Now() time.Time { return time.Unix(0, 0) }

func (c captureClock) AfterFunc(_ time.Duration, f func()) Stopper {
	c.fn(f)
	return noopStopper{}
}

type noopStopper struct{}

func (noopStopper) Stop() bool { return false }

func TestSystemClockTimer(t *testing.T) {
	timer := New(nil)
	done := make(chan struct{})
	timer.Arm(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("system clock timer did not fire")
	}
}
