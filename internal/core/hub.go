package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Hub owns the lifecycle of connected clients. Each client gets one goroutine that
// executes its commands in arrival order; different clients run concurrently.
type Hub struct {
	handler *Handler
	log     *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
}

// NewHub creates a new chat hub instance.
func NewHub(handler *Handler, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		handler: handler,
		log:     logger,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*Client]struct{}),
	}
}

// RegisterClient starts processing the client's commands.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(c.done)
		return
	}
	if _, exists := h.clients[c]; exists {
		return
	}
	h.clients[c] = struct{}{}

	h.wg.Add(1)
	go h.serve(c)

	h.log.Debug().Str("client_id", c.ID).Str("user_id", c.UserID).Msg("client registered")
}

// UnregisterClient stops the client's command loop and releases its rooms.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	if _, exists := h.clients[c]; !exists {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.done)
	h.mu.Unlock()

	h.handler.Disconnect(c)
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run blocks until ctx is cancelled, then disconnects every client and waits for
// in-flight commands to finish.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.cancel()
	for _, c := range clients {
		h.UnregisterClient(c)
	}
	h.wg.Wait()

	h.log.Info().Int("clients", len(clients)).Msg("hub stopped")
}

func (h *Hub) serve(c *Client) {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-c.done:
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			h.handler.Handle(h.ctx, c, cmd)
		}
	}
}
