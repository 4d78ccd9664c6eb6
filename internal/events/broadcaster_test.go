package events

import (
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	// Start with no subscribers
	initial := SubscriberCount()

	sub1 := Subscribe()
	if SubscriberCount() != initial+1 {
		t.Errorf("expected %d subscribers after first subscribe, got %d", initial+1, SubscriberCount())
	}

	sub2 := Subscribe()
	if SubscriberCount() != initial+2 {
		t.Errorf("expected %d subscribers after second subscribe, got %d", initial+2, SubscriberCount())
	}

	Unsubscribe(sub1)
	if SubscriberCount() != initial+1 {
		t.Errorf("expected %d subscribers after unsubscribe, got %d", initial+1, SubscriberCount())
	}

	Unsubscribe(sub2)
	if SubscriberCount() != initial {
		t.Errorf("expected %d subscribers after all unsubscribed, got %d", initial, SubscriberCount())
	}
}

func TestBroadcastToSubscribers(t *testing.T) {
	sub := Subscribe()
	defer Unsubscribe(sub)

	// Emit an event
	Emit("info", "solve.requested", "test", map[string]interface{}{"request_id": "req-1"})

	// Should receive the event
	select {
	case e := <-sub:
		if e.Name != "solve.requested" {
			t.Errorf("expected event name 'solve.requested', got '%s'", e.Name)
		}
		if e.Fields["request_id"] != "req-1" {
			t.Errorf("expected request_id 'req-1', got '%v'", e.Fields["request_id"])
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast event")
	}
}

func TestRecentEvents(t *testing.T) {
	Clear()

	// Emit some events
	for i := 0; i < 10; i++ {
		Emit("info", "solve.requested", "", map[string]interface{}{"i": i})
	}

	// Get recent 5
	recent := RecentEvents(5)
	if len(recent) != 5 {
		t.Errorf("expected 5 recent events, got %d", len(recent))
	}

	// First recent event should be i=5 (the 6th event, since we're getting last 5)
	if recent[0].Fields["i"] != 5 {
		t.Errorf("expected first recent event i=5, got %v", recent[0].Fields["i"])
	}

	// Get more than available
	all := RecentEvents(100)
	if len(all) != 10 {
		t.Errorf("expected 10 events when requesting 100, got %d", len(all))
	}

	// Get 0 should return all
	zero := RecentEvents(0)
	if len(zero) != 10 {
		t.Errorf("expected 10 events when requesting 0, got %d", len(zero))
	}
}

func TestMultipleSubscribersReceiveEvents(t *testing.T) {
	sub1 := Subscribe()
	sub2 := Subscribe()
	defer Unsubscribe(sub1)
	defer Unsubscribe(sub2)

	Emit("info", "solve.completed", "", map[string]interface{}{"success": true})

	// Both should receive
	select {
	case e := <-sub1:
		if e.Name != "solve.completed" {
			t.Errorf("sub1: expected 'solve.completed', got '%s'", e.Name)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("sub1: timeout waiting for event")
	}

	select {
	case e := <-sub2:
		if e.Name != "solve.completed" {
			t.Errorf("sub2: expected 'solve.completed', got '%s'", e.Name)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("sub2: timeout waiting for event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	sub := Subscribe()
	Unsubscribe(sub)

	// Channel should be closed
	_, ok := <-sub
	if ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestCloseAllSubscribers(t *testing.T) {
	// Clear any existing subscribers
	CloseAllSubscribers()

	// Create multiple subscribers
	sub1 := Subscribe()
	sub2 := Subscribe()
	sub3 := Subscribe()

	if SubscriberCount() != 3 {
		t.Errorf("expected 3 subscribers, got %d", SubscriberCount())
	}

	// Close all subscribers
	CloseAllSubscribers()

	// All channels should be closed
	_, ok1 := <-sub1
	_, ok2 := <-sub2
	_, ok3 := <-sub3

	if ok1 || ok2 || ok3 {
		t.Error("expected all channels to be closed")
	}

	// Subscriber count should be 0
	if SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after CloseAllSubscribers, got %d", SubscriberCount())
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	sub := Subscribe()
	Unsubscribe(sub)
	Unsubscribe(sub)
}

func TestEmitRejectsUnknownEvent(t *testing.T) {
	if _, err := Emit("info", "node.started", "", nil); err == nil {
		t.Error("expected error for unregistered event name")
	}
}

func TestTotalCountSurvivesClear(t *testing.T) {
	before := TotalCount()
	Emit("info", "system.startup", "", nil)
	Emit("info", "system.shutdown", "", nil)
	Clear()

	if got := TotalCount(); got != before+2 {
		t.Errorf("expected total %d, got %d", before+2, got)
	}
	if len(Snapshot()) != 0 {
		t.Errorf("expected empty snapshot after Clear, got %d", len(Snapshot()))
	}
}

func TestRingBufferWrapsOldestFirst(t *testing.T) {
	rb := NewRingBuffer(3)
	for _, name := range []string{"a", "b", "c", "d"} {
		rb.Add(Event{Name: name})
	}

	got := rb.Snapshot()
	if len(got) != 3 || got[0].Name != "b" || got[2].Name != "d" {
		t.Errorf("unexpected snapshot order: %+v", got)
	}
	if rb.Total() != 4 {
		t.Errorf("expected total 4, got %d", rb.Total())
	}
}

func TestRingBufferLast(t *testing.T) {
	rb := NewRingBuffer(4)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		rb.Add(Event{Name: name})
	}

	got := rb.Last(2)
	if len(got) != 2 || got[0].Name != "e" || got[1].Name != "f" {
		t.Errorf("unexpected tail: %+v", got)
	}
	if all := rb.Last(10); len(all) != 4 || all[0].Name != "c" {
		t.Errorf("expected the 4 held events starting at c, got %+v", all)
	}
}

func TestRingBufferRefillsAfterClear(t *testing.T) {
	rb := NewRingBuffer(2)
	rb.Add(Event{Name: "a"})
	rb.Add(Event{Name: "b"})
	rb.Add(Event{Name: "c"})
	rb.Clear()
	rb.Add(Event{Name: "d"})

	got := rb.Snapshot()
	if len(got) != 1 || got[0].Name != "d" {
		t.Errorf("unexpected snapshot after clear: %+v", got)
	}
	if rb.Total() != 4 {
		t.Errorf("expected total 4, got %d", rb.Total())
	}
}

func TestBroadcasterCountsDroppedEvents(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < subscriberBuffer+3; i++ {
		b.Publish(Event{Name: "solve.completed"})
	}

	if got := b.Dropped(); got != 3 {
		t.Errorf("expected 3 dropped events, got %d", got)
	}
	if len(sub) != subscriberBuffer {
		t.Errorf("expected a full buffer of %d, got %d", subscriberBuffer, len(sub))
	}
}

func TestBroadcasterUsableAfterClose(t *testing.T) {
	b := NewBroadcaster()
	first := b.Subscribe()
	b.Close()
	if _, ok := <-first; ok {
		t.Fatal("expected first subscriber to be closed")
	}

	second := b.Subscribe()
	defer b.Unsubscribe(second)
	b.Publish(Event{Name: "system.startup"})

	select {
	case e := <-second:
		if e.Name != "system.startup" {
			t.Errorf("unexpected event %q", e.Name)
		}
	default:
		t.Fatal("expected second subscriber to receive the event")
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.Len())
	}
}
