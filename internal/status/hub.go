package status

import (
	"sync"
)

// Hub fans encoded snapshots out to websocket subscribers. A slow subscriber
// loses its oldest pending message rather than blocking the publisher.
type Hub struct {
	subscribers []*subscriber

	sync.Mutex
}

type subscriber struct {
	ch     chan []byte
	missed uint64
}

func (h *Hub) Subscribe(capacity int) <-chan []byte {
	h.Lock()
	defer h.Unlock()

	if capacity == 0 {
		panic("status.Hub: subscriber capacity must be nonzero")
	}

	s := &subscriber{ch: make(chan []byte, capacity)}
	h.subscribers = append(h.subscribers, s)
	return s.ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (h *Hub) Unsubscribe(ch <-chan []byte) {
	h.Lock()
	defer h.Unlock()

	for i, s := range h.subscribers {
		if ch == s.ch {
			subs := h.subscribers
			close(s.ch)
			subs[len(subs)-1], subs[i] = subs[i], subs[len(subs)-1]
			h.subscribers = subs[:len(subs)-1]
			if s.missed > 0 {
				log.Debug("Status subscriber missed %d messages", s.missed)
			}
			return
		}
	}
}

// Write publishes p to every subscriber.
func (h *Hub) Write(p []byte) (n int, err error) {
	h.Lock()
	defer h.Unlock()

	for _, s := range h.subscribers {
		select {
		case s.ch <- p:
		default:
			// Drop oldest, add newest
			select {
			case <-s.ch:
			default:
			}
			s.ch <- p
			s.missed++
		}
	}
	return len(p), nil
}

// Subscribers returns the number of current subscribers.
func (h *Hub) Subscribers() int {
	h.Lock()
	defer h.Unlock()
	return len(h.subscribers)
}

// Missed returns the number of messages ch has lost to a full buffer.
func (h *Hub) Missed(ch <-chan []byte) uint64 {
	h.Lock()
	defer h.Unlock()
	for _, s := range h.subscribers {
		if ch == s.ch {
			return s.missed
		}
	}
	return 0
}

// Close drops every subscriber.
func (h *Hub) Close() error {
	h.Lock()
	defer h.Unlock()

	for _, s := range h.subscribers {
		close(s.ch)
	}
	h.subscribers = nil
	return nil
}
