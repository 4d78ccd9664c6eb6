package events

import (
	"sync"
	"sync/atomic"
)

// subscriberBuffer is how many events a live subscriber may fall behind
// before it starts missing them.
const subscriberBuffer = 64

// Subscriber receives live events until it is unsubscribed or the
// broadcaster is closed, at which point the channel is closed.
type Subscriber chan Event

// Broadcaster fans events out to live subscribers such as /ws/events clients.
// Delivery never blocks the emitter: a subscriber whose buffer is full misses
// the event and the drop is counted.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[Subscriber]struct{}
	dropped atomic.Uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[Subscriber]struct{})}
}

func (b *Broadcaster) Subscribe() Subscriber {
	ch := make(Subscriber, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe closes sub. It is a no-op for a channel that is not
// subscribed, including one already closed by Close.
func (b *Broadcaster) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub)
	}
}

// Close ends every current subscription. The broadcaster stays usable.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		close(sub)
	}
	b.subs = make(map[Subscriber]struct{})
}

func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// live carries Emit's events to websocket clients.
var live = NewBroadcaster()

func Subscribe() Subscriber { return live.Subscribe() }
func Unsubscribe(sub Subscriber) { live.Unsubscribe(sub) }
func SubscriberCount() int { return live.Len() }
func DroppedCount() uint64 { return live.Dropped() }
func broadcast(e Event) { live.Publish(e) }

// CloseAllSubscribers ends every live subscription. The server calls it on
// shutdown so websocket writers return.
func CloseAllSubscribers() { live.Close() }

// RecentEvents returns up to the last n buffered events, oldest first.
// n <= 0 returns everything buffered.
func RecentEvents(n int) []Event {
	return buffer.Last(n)
}
