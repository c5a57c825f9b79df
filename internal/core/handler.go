package core

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/sessionchat/internal/store"
)

// Handler reacts to client commands: it resolves sessions, persists messages and fans
// results out through the router. Failures never escape Handle; they become a single
// error event for the calling client.
type Handler struct {
	store        store.Store
	router       *Router
	directory    *Directory
	responder    Responder
	storeTimeout time.Duration
	log          *zerolog.Logger
}

// HandlerOptions tunes optional handler behavior.
type HandlerOptions struct {
	// StoreTimeout bounds a whole command's store work. Zero disables the bound.
	StoreTimeout time.Duration
	Logger       *zerolog.Logger
}

// NewHandler wires a handler to its collaborators.
func NewHandler(st store.Store, router *Router, responder Responder, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if responder == nil {
		responder = NewEchoResponder("")
	}
	return &Handler{
		store:        st,
		router:       router,
		directory:    NewDirectory(st),
		responder:    responder,
		storeTimeout: opts.StoreTimeout,
		log:          logger,
	}
}

// Handle dispatches a command and reports any failure to the caller only.
func (h *Handler) Handle(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandLeaveSession:
		h.LeaveSession(c, cmd.UserID, cmd.SessionID)
		return
	case CommandReject:
		if cmd.Reject == nil {
			cmd.Reject = coreError(ErrCodeBadRequest, "Bad request")
		}
		h.fail(c, cmd.Reject)
		return
	}

	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	var (
		err    error
		action string
	)
	switch cmd.Kind {
	case CommandGetSessions:
		action = "fetch sessions"
		err = h.ListSessions(ctx, c, cmd.UserID)
	case CommandJoinSession:
		action = "join session"
		err = h.JoinSession(ctx, c, cmd.UserID, cmd.SessionID)
	case CommandSendMessage:
		action = "send message"
		err = h.SendMessage(ctx, c, cmd.UserID, cmd.SessionID, cmd.Content)
	default:
		h.fail(c, coreError(ErrCodeUnknownEvent, "Unknown command"))
		return
	}

	if err != nil {
		h.log.Warn().Err(err).
			Str("client_id", c.ID).
			Str("user_id", cmd.UserID).
			Str("session_id", cmd.SessionID).
			Stringer("command", cmd.Kind).
			Msg("command failed")
		h.fail(c, coreError(ErrorCode(err), "Failed to "+action+": "+err.Error()))
	}
}

// ListSessions sends every session owned by userID to the caller.
func (h *Handler) ListSessions(ctx context.Context, c *Client, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return validationError("userId is required")
	}

	sessions, err := h.store.ListSessionsByOwner(ctx, userID)
	if err != nil {
		return persistenceError("list sessions", err)
	}

	h.log.Debug().Str("user_id", userID).Int("session_count", len(sessions)).Msg("sessions listed")
	h.router.EmitToCaller(c, &Event{Kind: EventSessionsList, Sessions: sessions})
	return nil
}

// JoinSession joins the session named by rawSessionID, or a freshly created one when
// rawSessionID is empty, and sends its history to the caller. Room membership only
// changes on success.
func (h *Handler) JoinSession(ctx context.Context, c *Client, userID, rawSessionID string) error {
	if strings.TrimSpace(userID) == "" {
		return validationError("userId is required")
	}

	session, created, err := h.directory.Open(ctx, userID, rawSessionID)
	if err != nil {
		return err
	}

	messages := session.Messages
	if created || messages == nil {
		messages = []*store.Message{}
	}

	room := RoomKey(session.ID)
	if !h.router.Join(c, room) && c.closed() {
		h.log.Debug().Str("client_id", c.ID).Int64("session_id", session.ID).Msg("client gone before join completed")
		return nil
	}

	h.log.Info().
		Str("client_id", c.ID).
		Str("user_id", userID).
		Int64("session_id", session.ID).
		Bool("created", created).
		Int("message_count", len(messages)).
		Msg("session joined")

	h.router.EmitToCaller(c, &Event{
		Kind:      EventSessionJoined,
		Room:      room,
		SessionID: session.ID,
		Messages:  messages,
	})
	return nil
}

// SendMessage persists the user's message, broadcasts it, persists and broadcasts the
// automatic reply, then links both messages to the session. Steps run in order without
// rollback: a failure after the first broadcast leaves the user message in place and is
// reported as a persistence error naming the failed step.
func (h *Handler) SendMessage(ctx context.Context, c *Client, userID, rawSessionID, content string) error {
	if strings.TrimSpace(userID) == "" {
		return validationError("userId is required")
	}

	session, err := h.directory.Lookup(ctx, rawSessionID)
	if err != nil {
		return err
	}
	room := RoomKey(session.ID)

	sender := userID
	userMsg, err := h.store.CreateMessage(ctx, &store.Message{
		SessionID:    session.ID,
		SenderUserID: &sender,
		Content:      content,
	})
	if err != nil {
		return persistenceError("save user message", err)
	}
	h.router.EmitToRoom(room, &Event{Kind: EventNewMessage, Room: room, SessionID: session.ID, Message: userMsg})

	serverMsg, err := h.store.CreateMessage(ctx, &store.Message{
		SessionID:       session.ID,
		Content:         h.responder.Reply(userMsg),
		IsServerMessage: true,
	})
	if err != nil {
		return persistenceError("save server message", err)
	}
	h.router.EmitToRoom(room, &Event{Kind: EventNewMessage, Room: room, SessionID: session.ID, Message: serverMsg})

	if err := h.store.ConnectMessages(ctx, session.ID, userMsg.ID, serverMsg.ID); err != nil {
		return persistenceError("link messages to session", err)
	}

	h.log.Debug().
		Str("client_id", c.ID).
		Str("user_id", userID).
		Int64("session_id", session.ID).
		Int64("message_id", userMsg.ID).
		Int64("reply_id", serverMsg.ID).
		Msg("message sent")
	return nil
}

// LeaveSession removes the client from the session's room. It never fails.
func (h *Handler) LeaveSession(c *Client, userID, rawSessionID string) {
	left := h.router.Leave(c, RawRoomKey(rawSessionID))
	h.log.Debug().
		Str("client_id", c.ID).
		Str("user_id", userID).
		Str("session_id", rawSessionID).
		Bool("was_member", left).
		Msg("session left")
}

// Disconnect releases every room membership of the client.
func (h *Handler) Disconnect(c *Client) {
	h.router.Release(c)
	h.log.Debug().Str("client_id", c.ID).Msg("client disconnected")
}

func (h *Handler) fail(c *Client, ce *CoreError) {
	h.router.EmitToCaller(c, &Event{Kind: EventError, Error: ce})
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.storeTimeout)
}
