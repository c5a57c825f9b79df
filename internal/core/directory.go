package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/sessionchat/internal/store"
)

// Directory resolves client-supplied session identifiers and decides between joining
// and creating. All reads and writes go through the session store.
type Directory struct {
	sessions store.SessionStore
	now      func() time.Time
}

// NewDirectory creates a directory backed by the given store.
func NewDirectory(sessions store.SessionStore) *Directory {
	return &Directory{sessions: sessions, now: time.Now}
}

// Resolve validates a raw identifier. An empty identifier means "create new" and is
// never an error.
func (d *Directory) Resolve(raw string) (id int64, create bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSessionID, raw)
	}
	return id, false, nil
}

// Open returns the session named by raw, with its messages, or creates a new empty
// session owned by userID when raw is empty.
func (d *Directory) Open(ctx context.Context, userID, raw string) (*store.Session, bool, error) {
	id, create, err := d.Resolve(raw)
	if err != nil {
		return nil, false, err
	}

	if create {
		name := fmt.Sprintf("Session %d", d.now().UnixMilli())
		session, err := d.sessions.CreateSession(ctx, userID, name)
		if err != nil {
			return nil, false, persistenceError("create session", err)
		}
		return session, true, nil
	}

	session, err := d.get(ctx, id, true)
	if err != nil {
		return nil, false, err
	}
	return session, false, nil
}

// Lookup loads an existing session without its messages. The identifier is required.
func (d *Directory) Lookup(ctx context.Context, raw string) (*store.Session, error) {
	return d.lookup(ctx, raw, false)
}

// History loads an existing session together with its ordered messages.
func (d *Directory) History(ctx context.Context, raw string) (*store.Session, error) {
	return d.lookup(ctx, raw, true)
}

func (d *Directory) lookup(ctx context.Context, raw string, withMessages bool) (*store.Session, error) {
	id, create, err := d.Resolve(raw)
	if err != nil {
		return nil, err
	}
	if create {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidSessionID)
	}
	return d.get(ctx, id, withMessages)
}

func (d *Directory) get(ctx context.Context, id int64, withMessages bool) (*store.Session, error) {
	session, err := d.sessions.GetSession(ctx, id, withMessages)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
		}
		return nil, persistenceError("load session", err)
	}
	return session, nil
}
