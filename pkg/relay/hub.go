package relay

import (
	"sync"
	"sync/atomic"
)

// Hub is a multi-producer, multi-subscriber broadcast bus. Every
// subscriber owns a bounded queue that receives envelopes in publish
// order, starting from the moment it subscribed. Publish never blocks: a
// subscriber whose queue is full loses its oldest unread envelopes and
// simply misses them.
type Hub struct {
	mu         sync.RWMutex
	subs       map[*Subscription]struct{}
	bufferSize int

	// Statistics
	published int64
	dropped   int64
}

// Subscription is one subscriber's view of the hub.
type Subscription struct {
	hub  *Hub
	ch   chan Envelope
	once sync.Once
}

// NewHub creates a hub whose subscribers each buffer up to bufferSize
// envelopes.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Hub{
		subs:       make(map[*Subscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe adds a subscriber. The subscription sees only envelopes
// published after this call returns.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		hub: h,
		ch:  make(chan Envelope, h.bufferSize),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Publish delivers env to every current subscriber. Publishing with no
// subscribers is a no-op.
func (h *Hub) Publish(env Envelope) {
	atomic.AddInt64(&h.published, 1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- env:
			continue
		default:
		}

		// Queue full: shed the oldest unread envelope and retry once. The
		// consumer may race us for the slot, in which case the retry wins
		// or the envelope is counted as dropped.
		select {
		case <-sub.ch:
		default:
		}

		select {
		case sub.ch <- env:
		default:
			atomic.AddInt64(&h.dropped, 1)
		}
	}
}

// SubscriberCount returns the number of active subscriptions
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()
	return n
}

// Stats returns hub counters
func (h *Hub) Stats() HubStats {
	return HubStats{
		Subscribers: h.SubscriberCount(),
		Published:   atomic.LoadInt64(&h.published),
		Dropped:     atomic.LoadInt64(&h.dropped),
	}
}

// HubStats provides statistics about the hub
type HubStats struct {
	Subscribers int   `json:"subscribers"`
	Published   int64 `json:"published"`
	Dropped     int64 `json:"dropped"`
}

// C returns the subscriber's receive queue.
func (s *Subscription) C() <-chan Envelope {
	return s.ch
}

// Close removes the subscription from the hub. Envelopes still buffered
// remain readable; no new envelopes arrive after Close returns.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
	})
}
