package event

import (
	"log/slog"
	"sync/atomic"
	"testing"
)

func TestBusPublishSubscribe(t *testing.T) {
	b := NewBus(slog.Default())

	var called int32
	b.Subscribe(StackCreated, func(e Event) {
		atomic.AddInt32(&called, 1)
		if e.Type != StackCreated {
			t.Errorf("expected type %s, got %s", StackCreated, e.Type)
		}
		if e.Payload["id"] != uint(7) {
			t.Errorf("expected payload id=7, got %v", e.Payload["id"])
		}
		if e.Time.IsZero() {
			t.Error("expected publish to stamp the event time")
		}
	})

	b.Publish(Event{
		Type:    StackCreated,
		Payload: map[string]any{"id": uint(7)},
	})

	if atomic.LoadInt32(&called) != 1 {
		t.Fatal("handler was not called")
	}
}

func TestBusWildcard(t *testing.T) {
	b := NewBus(slog.Default())

	var count int32
	b.Subscribe(Wildcard, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	b.Publish(Event{Type: ServerCreated})
	b.Publish(Event{Type: ConnectionDeleted})

	if atomic.LoadInt32(&count) != 2 {
		t.Fatalf("expected wildcard handler called 2 times, got %d", count)
	}
}

func TestBusPanicRecovery(t *testing.T) {
	b := NewBus(slog.Default())

	var secondCalled int32
	b.Subscribe("crash", func(e Event) {
		panic("boom")
	})
	b.Subscribe("crash", func(e Event) {
		atomic.AddInt32(&secondCalled, 1)
	})

	b.Publish(Event{Type: "crash"})

	if atomic.LoadInt32(&secondCalled) != 1 {
		t.Fatal("second handler should have been called despite first handler panicking")
	}
}

func TestBusNoSubscribers(t *testing.T) {
	b := NewBus(slog.Default())
	b.Publish(Event{Type: "nobody.listens"})
	Discard{}.Publish(Event{Type: "nobody.listens"})
}
