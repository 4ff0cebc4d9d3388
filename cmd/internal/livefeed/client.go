package livefeed

import (
	"sync"

	"rollcall/cmd/internal/attendance"
)

// client represents one connected feed subscriber.
//
// send is intentionally NOT closed by the hub to keep concurrent
// broadcasts panic-free; done signals the connection goroutines to stop.
type client struct {
	id     string
	userID int64
	send   chan attendance.Event

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, userID int64, queueSize int) *client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &client{
		id:     id,
		userID: userID,
		send:   make(chan attendance.Event, queueSize),
		done:   make(chan struct{}),
	}
}

// close signals the client goroutines to stop (idempotent). It does not
// close send.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
