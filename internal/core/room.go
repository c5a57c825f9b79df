package core

import (
	"strconv"
	"strings"
)

const roomPrefix = "session_"

// RoomKey returns the broadcast group key for a session.
func RoomKey(sessionID int64) string {
	return roomPrefix + strconv.FormatInt(sessionID, 10)
}

// RawRoomKey builds a room key from an unvalidated session identifier.
func RawRoomKey(rawSessionID string) string {
	return roomPrefix + strings.TrimSpace(rawSessionID)
}

// Room groups clients subscribed to the same session.
type Room struct {
	Name    string
	clients map[*Client]struct{}
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Snapshot copies the current member set.
func (r *Room) Snapshot() []*Client {
	members := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		members = append(members, c)
	}
	return members
}

// Len returns the number of members.
func (r *Room) Len() int {
	return len(r.clients)
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}
