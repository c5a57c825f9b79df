package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Router owns room membership and fans events out to room members.
// It is safe for concurrent use.
type Router struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	memberships map[*Client]map[string]struct{}
	log         *zerolog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *zerolog.Logger) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{
		rooms:       make(map[string]*Room),
		memberships: make(map[*Client]map[string]struct{}),
		log:         logger,
	}
}

// Join adds the client to the room, creating the room on first use.
// Returns false if the client already was a member or has been unregistered.
func (r *Router) Join(c *Client, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Unregister closes done before Release takes the lock, so a join that
	// lost the race must not resurrect the membership.
	if c.closed() {
		return false
	}

	room, ok := r.rooms[key]
	if !ok {
		room = NewRoom(key)
		r.rooms[key] = room
	}
	if !room.AddClient(c) {
		return false
	}

	joined, ok := r.memberships[c]
	if !ok {
		joined = make(map[string]struct{})
		r.memberships[c] = joined
	}
	joined[key] = struct{}{}
	return true
}

// Leave removes the client from the room. Leaving a room the client is not in is a no-op.
func (r *Router) Leave(c *Client, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leaveLocked(c, key)
}

// Release drops every membership of the client.
func (r *Router) Release(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.memberships[c] {
		r.leaveLocked(c, key)
	}
	delete(r.memberships, c)
}

func (r *Router) leaveLocked(c *Client, key string) bool {
	room, ok := r.rooms[key]
	if !ok || !room.RemoveClient(c) {
		return false
	}
	if room.Empty() {
		delete(r.rooms, key)
	}

	if joined, ok := r.memberships[c]; ok {
		delete(joined, key)
		if len(joined) == 0 {
			delete(r.memberships, c)
		}
	}
	return true
}

// EmitToRoom delivers the event to every client that is a member at call time.
// Returns the number of clients the event was queued for.
func (r *Router) EmitToRoom(key string, event *Event) int {
	r.mu.RLock()
	room, ok := r.rooms[key]
	var members []*Client
	if ok {
		members = room.Snapshot()
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.deliver(event) {
			delivered++
			continue
		}
		r.log.Warn().
			Str("client_id", c.ID).
			Str("room", key).
			Stringer("event", event.Kind).
			Msg("dropping event for slow consumer")
	}
	return delivered
}

// EmitToCaller delivers the event to a single client.
func (r *Router) EmitToCaller(c *Client, event *Event) bool {
	if c.deliver(event) {
		return true
	}
	r.log.Warn().
		Str("client_id", c.ID).
		Stringer("event", event.Kind).
		Msg("dropping event for slow consumer")
	return false
}

// Members returns the number of clients in the room.
func (r *Router) Members(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if room, ok := r.rooms[key]; ok {
		return room.Len()
	}
	return 0
}

// RoomsOf lists the rooms the client belongs to, sorted.
func (r *Router) RoomsOf(c *Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := lo.Keys(r.memberships[c])
	sort.Strings(keys)
	return keys
}

// Close drops all rooms. Called once at shutdown.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms = make(map[string]*Room)
	r.memberships = make(map[*Client]map[string]struct{})
}
