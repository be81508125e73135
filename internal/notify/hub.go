// Package notify fans out experiment change events to in-process subscribers.
package notify

import (
	"sync"
)

// Change describes one applied write. Batch is empty for single-experiment writes.
type Change struct {
	Batch string
	Names []string
}

// Hub delivers each published Change to every current subscriber.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Change]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Change]struct{})}
}

// Subscribe registers a listener and returns its channel and an unsubscribe func.
// The unsubscribe func closes the channel and may be called more than once.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, unsub
}

// Publish notifies all listeners without blocking. A subscriber that has not
// drained its previous change misses this one.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default: // slow subscriber, skip instead of blocking
		}
	}
	h.mu.Unlock()
}

// Subscribers returns the number of registered listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
