package livefeed

import (
	"log/slog"
	"sync"

	"rollcall/cmd/internal/attendance"
)

// Hub tracks connected subscribers and fans attendance events out to
// them. It satisfies attendance.Publisher.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub constructs an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{log: log, clients: make(map[string]*client)}
}

// Publish delivers the event to every connected subscriber. Slow
// subscribers whose queue is full miss the event; the feed favors
// liveness over completeness and clients refetch on reconnect.
func (h *Hub) Publish(ev attendance.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.send <- ev:
		case <-c.done:
		default:
			h.log.Warn("livefeed.drop", "client_id", c.id)
		}
	}
}

// Subscribers reports how many clients are connected.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	subscribersGauge.Set(float64(len(h.clients)))
}

func (h *Hub) leave(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
	subscribersGauge.Set(float64(len(h.clients)))
}
