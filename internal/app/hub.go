package app

import "sync"

// FrameHub holds the latest annotated JPEG and hands it to subscribers.
// Slow subscribers only ever see the newest frame.
type FrameHub struct {
	mu     sync.RWMutex
	latest []byte
	subs   map[int]chan []byte
	next   int
}

// NewFrameHub creates an empty hub.
func NewFrameHub() *FrameHub {
	return &FrameHub{subs: make(map[int]chan []byte)}
}

// Publish replaces the latest frame and wakes subscribers.
func (h *FrameHub) Publish(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = jpeg
	for _, ch := range h.subs {
		select {
		case ch <- jpeg:
		default:
			// Drop the stale frame and replace it.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- jpeg:
			default:
			}
		}
	}
}

// Latest returns the most recent frame, or nil before the first one.
func (h *FrameHub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Subscribe returns a channel of frames and a function that releases it.
func (h *FrameHub) Subscribe() (<-chan []byte, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan []byte, 1)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *FrameHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
