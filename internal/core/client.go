package core

// Client is a live connection as seen by the core layer.
type Client struct {
	ID string
	// UserID is the authenticated identity, empty when the transport did not verify one.
	UserID   string
	Commands chan *Command
	Events   chan *Event
	done     chan struct{}
}

// NewClient constructs a client with initialized channels.
// eventBuffer bounds how many undelivered events the client may hold.
func NewClient(id, userID string, eventBuffer int) *Client {
	if eventBuffer <= 0 {
		eventBuffer = 64
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, eventBuffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the client has been unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// deliver queues the event without blocking. It reports false when the buffer is full
// or the client is gone.
func (c *Client) deliver(event *Event) bool {
	if c.closed() {
		return false
	}

	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}
