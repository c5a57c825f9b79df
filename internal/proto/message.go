package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	// ProtocolVersion is reported by the health endpoint and bumps on breaking wire changes.
	ProtocolVersion = 1

	InboundTypeGetSessions  = "get_sessions"
	InboundTypeJoinSession  = "join_session"
	InboundTypeSendMessage  = "send_message"
	InboundTypeLeaveSession = "leave_session"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventSessionsList  = "sessions_list"
	EventSessionJoined = "session_joined"
	EventNewMessage    = "new_message"
	EventError         = "error"

	// ServerUsername is the sender name shown for automatic replies.
	ServerUsername = "Server"
)

// ID is an identifier as sent by clients. It accepts JSON strings and numbers;
// null and false decode to the empty (absent) identifier.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("identifier must be a string or number: %w", err)
		}
		*id = ID(n.String())
		return nil
	}
}

// GetSessionsData requests the sessions owned by a user.
type GetSessionsData struct {
	UserID ID `json:"userId" validate:"required"`
}

// JoinSessionData joins an existing session, or creates one when SessionID is absent.
type JoinSessionData struct {
	UserID    ID `json:"userId" validate:"required"`
	SessionID ID `json:"sessionId,omitempty"`
}

// SendMessageData posts a message to a session.
type SendMessageData struct {
	UserID    ID     `json:"userId" validate:"required"`
	SessionID ID     `json:"sessionId"`
	Message   string `json:"message" validate:"max=4096"`
}

// LeaveSessionData leaves a session room.
type LeaveSessionData struct {
	UserID    ID `json:"userId"`
	SessionID ID `json:"sessionId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Sender identifies who authored a message.
type Sender struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

// Message is a chat message as seen by clients. All identifiers are strings.
type Message struct {
	ID              string  `json:"id"`
	Sender          *Sender `json:"sender"`
	Content         string  `json:"content"`
	CreatedAt       string  `json:"createdAt"`
	Session         string  `json:"session"`
	IsServerMessage bool    `json:"isServerMessage"`
}

// Session is a conversation with its messages.
type Session struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"ownerUserId"`
	Owner       *Sender   `json:"owner,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	Messages    []Message `json:"messages"`
}

// SessionJoined is the payload of session_joined.
type SessionJoined struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Health is the body of the health endpoint.
type Health struct {
	Status   string `json:"status"`
	Protocol int    `json:"protocol"`
}
