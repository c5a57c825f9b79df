package core

import "github.com/vovakirdan/sessionchat/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventSessionsList delivers the caller's sessions.
	EventSessionsList EventKind = iota
	// EventSessionJoined confirms a join and carries the session history.
	EventSessionJoined
	// EventNewMessage notifies room members about a persisted message.
	EventNewMessage
	// EventError notifies the caller about a failed command.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventSessionsList:
		return "sessions_list"
	case EventSessionJoined:
		return "session_joined"
	case EventNewMessage:
		return "new_message"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	Room      string
	SessionID int64
	Sessions  []*store.Session // EventSessionsList
	Messages  []*store.Message // EventSessionJoined
	Message   *store.Message   // EventNewMessage
	Error     *CoreError       // EventError
}
