// Package memory provides a process-local store.Store, suitable for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/vovakirdan/sessionchat/internal/store"
)

type sessionRecord struct {
	session  store.Session
	messages []int64 // connected message ids, insertion order
}

// Store keeps sessions, messages and users in maps guarded by a single mutex.
type Store struct {
	mu            sync.RWMutex
	nextSessionID int64
	nextMessageID int64
	sessions      map[int64]*sessionRecord
	messages      map[int64]store.Message
	users         map[string]store.User
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[int64]*sessionRecord),
		messages: make(map[int64]store.Message),
		users:    make(map[string]store.User),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// UpsertUser creates the user or refreshes its username.
func (s *Store) UpsertUser(_ context.Context, user *store.User) error {
	s.mu.Lock()
	s.users[user.ID] = *user
	s.mu.Unlock()
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return &user, nil
}

// CreateSession creates an empty session owned by ownerID.
func (s *Store) CreateSession(_ context.Context, ownerID, name string) (*store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSessionID++
	rec := &sessionRecord{
		session: store.Session{
			ID:          s.nextSessionID,
			OwnerUserID: ownerID,
			Name:        name,
			CreatedAt:   time.Now().UTC(),
		},
	}
	s.sessions[rec.session.ID] = rec

	return s.populateSession(rec, true), nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(_ context.Context, id int64, withMessages bool) (*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, store.ErrNotFound)
	}
	return s.populateSession(rec, withMessages), nil
}

// ListSessionsByOwner returns every session owned by ownerID with messages populated.
func (s *Store) ListSessionsByOwner(_ context.Context, ownerID string) ([]*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*store.Session, 0)
	for id := int64(1); id <= s.nextSessionID; id++ {
		rec, ok := s.sessions[id]
		if !ok || rec.session.OwnerUserID != ownerID {
			continue
		}
		sessions = append(sessions, s.populateSession(rec, true))
	}
	return sessions, nil
}

// ConnectMessages links messages to the session's message relation.
func (s *Store) ConnectMessages(_ context.Context, sessionID int64, messageIDs ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %d: %w", sessionID, store.ErrNotFound)
	}

	for _, id := range messageIDs {
		msg, ok := s.messages[id]
		if !ok || msg.SessionID != sessionID {
			return fmt.Errorf("message %d in session %d: %w", id, sessionID, store.ErrNotFound)
		}
	}

	for _, id := range messageIDs {
		if !lo.Contains(rec.messages, id) {
			rec.messages = append(rec.messages, id)
		}
	}
	return nil
}

// CreateMessage persists msg and returns the stored copy with its sender populated.
func (s *Store) CreateMessage(_ context.Context, msg *store.Message) (*store.Message, error) {
	if (msg.SenderUserID == nil) != msg.IsServerMessage {
		return nil, fmt.Errorf("insert message: sender must be empty exactly for server messages")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[msg.SessionID]; !ok {
		return nil, fmt.Errorf("insert message: session %d: %w", msg.SessionID, store.ErrNotFound)
	}

	s.nextMessageID++
	stored := store.Message{
		ID:              s.nextMessageID,
		SessionID:       msg.SessionID,
		Content:         msg.Content,
		IsServerMessage: msg.IsServerMessage,
		CreatedAt:       msg.CreatedAt,
	}
	if msg.SenderUserID != nil {
		sender := *msg.SenderUserID
		stored.SenderUserID = &sender
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.messages[stored.ID] = stored

	return s.populateMessage(stored), nil
}

// GetMessage retrieves a message by ID.
func (s *Store) GetMessage(_ context.Context, id int64) (*store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	return s.populateMessage(msg), nil
}

// populateSession returns a copy; callers must hold the lock.
func (s *Store) populateSession(rec *sessionRecord, withMessages bool) *store.Session {
	session := rec.session
	if owner, ok := s.users[session.OwnerUserID]; ok {
		session.Owner = &owner
	}
	if withMessages {
		session.Messages = make([]*store.Message, 0, len(rec.messages))
		for _, id := range rec.messages {
			session.Messages = append(session.Messages, s.populateMessage(s.messages[id]))
		}
	}
	return &session
}

// populateMessage returns a copy; callers must hold the lock.
func (s *Store) populateMessage(msg store.Message) *store.Message {
	if msg.SenderUserID != nil {
		sender := store.User{ID: *msg.SenderUserID}
		if user, ok := s.users[sender.ID]; ok {
			sender = user
		}
		msg.Sender = &sender
	}
	return &msg
}

var _ store.Store = (*Store)(nil)
