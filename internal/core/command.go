package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandGetSessions lists the sessions owned by a user.
	CommandGetSessions CommandKind = iota
	// CommandJoinSession joins an existing session or creates a new one.
	CommandJoinSession
	// CommandSendMessage posts a user message to a session.
	CommandSendMessage
	// CommandLeaveSession unsubscribes the client from a session room.
	CommandLeaveSession
	// CommandReject answers a frame the transport could not turn into a command.
	CommandReject
)

func (k CommandKind) String() string {
	switch k {
	case CommandGetSessions:
		return "get_sessions"
	case CommandJoinSession:
		return "join_session"
	case CommandSendMessage:
		return "send_message"
	case CommandLeaveSession:
		return "leave_session"
	case CommandReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
// SessionID carries the raw identifier exactly as the client sent it.
type Command struct {
	Kind      CommandKind
	UserID    string
	SessionID string
	Content   string
	Reject    *CoreError // CommandReject
}
