package session

import (
	"sync"
)

// Notification is one store change as pushed to feed subscribers.
type Notification struct {
	Type      string     `json:"type"`
	Reason    string     `json:"reason"`
	Timestamp int64      `json:"timestamp"`
	Payload   *ViewState `json:"payload,omitempty"`
}

// Hub fans notifications out to subscribers. Slow subscribers lose messages
// instead of blocking the workspace loop.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Notification
	next   int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Notification)}
}

// Subscribe registers a subscriber with the given buffer size.
// The returned cancel func closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers n to every subscriber with room in its buffer.
// It returns how many subscribers dropped the message.
func (h *Hub) Publish(n Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
			dropped++
		}
	}
	return dropped
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
