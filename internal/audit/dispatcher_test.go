package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestDispatcherDeliversAndDrains(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, NewJSONWriterSink(&buf))

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "login_failure", Username: "alice"})
	}
	d.Close()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal(lines[0], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.EventType != "login_failure" || ev.Timestamp.IsZero() {
		t.Fatalf("unexpected event %+v", ev)
	}
	if st := d.Stats(); st.Delivered != 5 || st.Dropped != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}

	d.Emit(context.Background(), Event{EventType: "after_close"})
	if d.Stats().Delivered != 5 {
		t.Fatal("events after close must be ignored")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) { <-s.release }

func TestDispatcherDropIfFull(t *testing.T) {
	sink := blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "x"})
	}
	close(sink.release)
	d.Close()

	st := d.Stats()
	if st.Dropped == 0 {
		t.Fatal("expected drops with a blocked sink")
	}
	if st.Delivered+st.Dropped != 10 {
		t.Fatalf("expected every event accounted for, got %+v", st)
	}
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Stats() != (Stats{}) {
		t.Fatal("expected zero stats")
	}
}

func TestMultiSink(t *testing.T) {
	a, b := NewChannelSink(1), NewChannelSink(1)
	MultiSink{a, nil, b}.Emit(context.Background(), Event{EventType: "logout", Timestamp: time.Now()})

	for _, s := range []*ChannelSink{a, b} {
		select {
		case ev := <-s.Events():
			if ev.EventType != "logout" {
				t.Fatalf("unexpected event %s", ev.EventType)
			}
		default:
			t.Fatal("expected event on every sink")
		}
	}
}
