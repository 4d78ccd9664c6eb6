package events

import "sync"

// RingBuffer holds the most recent events. Once full, each Add overwrites
// the oldest entry.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []Event
	start int // index of the oldest event
	n     int // events currently held
	total uint64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{slots: make([]Event, capacity)}
}

func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.total++
	if rb.n < len(rb.slots) {
		rb.slots[(rb.start+rb.n)%len(rb.slots)] = e
		rb.n++
		return
	}
	rb.slots[rb.start] = e
	rb.start = (rb.start + 1) % len(rb.slots)
}

// Snapshot copies out every held event, oldest first.
func (rb *RingBuffer) Snapshot() []Event {
	return rb.Last(0)
}

// Last copies out the newest k events, oldest first. k <= 0 means all.
func (rb *RingBuffer) Last(k int) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if k <= 0 || k > rb.n {
		k = rb.n
	}
	out := make([]Event, k)
	first := rb.start + rb.n - k
	for i := range out {
		out[i] = rb.slots[(first+i)%len(rb.slots)]
	}
	return out
}

// Total counts every Add, including events since overwritten or cleared.
func (rb *RingBuffer) Total() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.total
}

// Clear empties the buffer without resetting Total.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	clear(rb.slots)
	rb.start, rb.n = 0, 0
}
