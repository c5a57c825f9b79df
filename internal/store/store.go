package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// User is the identity referenced by sessions and messages.
// The ID is supplied by the caller and treated as opaque.
type User struct {
	ID       string
	Username string
}

// Session represents a conversation thread owned by a single user.
type Session struct {
	ID          int64
	OwnerUserID string
	Owner       *User // populated when the owner has a user record
	Name        string
	CreatedAt   time.Time
	Messages    []*Message // insertion order, populated on request
}

// Message represents a persisted chat entry.
// SenderUserID is nil if and only if IsServerMessage is true.
type Message struct {
	ID              int64
	SessionID       int64
	SenderUserID    *string
	Sender          *User // populated sender, nil for server messages
	Content         string
	IsServerMessage bool
	CreatedAt       time.Time
}

// SessionStore handles session persistence.
type SessionStore interface {
	// ListSessionsByOwner returns every session owned by ownerID with messages populated.
	ListSessionsByOwner(ctx context.Context, ownerID string) ([]*Session, error)

	// GetSession retrieves a session by ID. Returns ErrNotFound when absent.
	GetSession(ctx context.Context, id int64, withMessages bool) (*Session, error)

	// CreateSession creates an empty session owned by ownerID.
	CreateSession(ctx context.Context, ownerID, name string) (*Session, error)

	// ConnectMessages links messages to the session's message relation.
	// Only messages created for that session can be connected; repeated links are ignored.
	ConnectMessages(ctx context.Context, sessionID int64, messageIDs ...int64) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists msg and returns the stored copy with its sender populated.
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)

	// GetMessage retrieves a message by ID. Returns ErrNotFound when absent.
	GetMessage(ctx context.Context, id int64) (*Message, error)
}

// UserStore caches identities so message senders can be populated.
type UserStore interface {
	// UpsertUser creates the user or refreshes its username.
	UpsertUser(ctx context.Context, user *User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound when absent.
	GetUser(ctx context.Context, id string) (*User, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	SessionStore
	MessageStore
	UserStore

	// Close releases the underlying resources.
	Close() error
}
