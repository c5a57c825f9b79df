package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/sessionchat/internal/store"
	"github.com/vovakirdan/sessionchat/internal/store/memory"
)

var errBoom = errors.New("boom")

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain returns every event already queued for the client.
func drain(c *Client) []*Event {
	var events []*Event
	for {
		select {
		case ev := <-c.Events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func newTestHandler(st store.Store) (*Handler, *Router) {
	router := NewRouter(nil)
	return NewHandler(st, router, NewEchoResponder(""), HandlerOptions{}), router
}

// faultyStore fails selected calls of the wrapped store.
type faultyStore struct {
	store.Store
	failCreateMessageAt int // 1-based call number, 0 never fails
	createMessageCalls  int
	failConnect         bool
	failList            bool
	connectCalls        int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.New()}
}

func (f *faultyStore) CreateMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	f.createMessageCalls++
	if f.createMessageCalls == f.failCreateMessageAt {
		return nil, errBoom
	}
	return f.Store.CreateMessage(ctx, msg)
}

func (f *faultyStore) ConnectMessages(ctx context.Context, sessionID int64, ids ...int64) error {
	f.connectCalls++
	if f.failConnect {
		return errBoom
	}
	return f.Store.ConnectMessages(ctx, sessionID, ids...)
}

func (f *faultyStore) ListSessionsByOwner(ctx context.Context, ownerID string) ([]*store.Session, error) {
	if f.failList {
		return nil, errBoom
	}
	return f.Store.ListSessionsByOwner(ctx, ownerID)
}

// stalledStore never completes session creation until the context ends.
type stalledStore struct {
	store.Store
}

func (s stalledStore) CreateSession(ctx context.Context, _, _ string) (*store.Session, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// gatedStore holds CreateSession until release is closed.
type gatedStore struct {
	store.Store
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		Store:   memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) CreateSession(ctx context.Context, ownerID, name string) (*store.Session, error) {
	close(g.entered)
	<-g.release
	return g.Store.CreateSession(ctx, ownerID, name)
}
