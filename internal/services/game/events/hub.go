package events

import "sync"

const subscriberBuffer = 16

// Hub is an in-process event fan-out keyed by game. Slow subscribers
// have events dropped rather than stalling the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a watcher for one game. The returned cancel func
// releases the subscription and closes the channel.
func (h *Hub) Subscribe(gameID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	gameSubs, ok := h.subs[gameID]
	if !ok {
		gameSubs = make(map[chan Event]struct{})
		h.subs[gameID] = gameSubs
	}
	gameSubs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if gameSubs, ok := h.subs[gameID]; ok {
				delete(gameSubs, ch)
				if len(gameSubs) == 0 {
					delete(h.subs, gameID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of its game.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[event.GameID] {
		select {
		case ch <- event:
		default:
		}
	}
}
