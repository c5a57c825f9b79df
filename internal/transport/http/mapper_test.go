package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/sessionchat/internal/core"
	"github.com/vovakirdan/sessionchat/internal/proto"
	"github.com/vovakirdan/sessionchat/internal/store"
)

func inbound(t *testing.T, typ, data string) proto.Inbound {
	t.Helper()
	return proto.Inbound{Type: typ, Data: json.RawMessage(data)}
}

func TestInboundToCommand(t *testing.T) {
	anon := core.NewClient("c1", "", 4)

	tests := []struct {
		name   string
		in     proto.Inbound
		want   core.Command
		reject string
	}{
		{
			name: "get sessions with numeric user",
			in:   inbound(t, proto.InboundTypeGetSessions, `{"userId":7}`),
			want: core.Command{Kind: core.CommandGetSessions, UserID: "7"},
		},
		{
			name: "join with null session creates",
			in:   inbound(t, proto.InboundTypeJoinSession, `{"userId":"7","sessionId":null}`),
			want: core.Command{Kind: core.CommandJoinSession, UserID: "7"},
		},
		{
			name: "join keeps raw session id",
			in:   inbound(t, proto.InboundTypeJoinSession, `{"userId":"7","sessionId":" 12 "}`),
			want: core.Command{Kind: core.CommandJoinSession, UserID: "7", SessionID: " 12 "},
		},
		{
			name: "send message",
			in:   inbound(t, proto.InboundTypeSendMessage, `{"userId":"7","sessionId":3,"message":"hi"}`),
			want: core.Command{Kind: core.CommandSendMessage, UserID: "7", SessionID: "3", Content: "hi"},
		},
		{
			name: "send empty message",
			in:   inbound(t, proto.InboundTypeSendMessage, `{"userId":"7","sessionId":3,"message":""}`),
			want: core.Command{Kind: core.CommandSendMessage, UserID: "7", SessionID: "3"},
		},
		{
			name: "leave without payload",
			in:   proto.Inbound{Type: proto.InboundTypeLeaveSession},
			want: core.Command{Kind: core.CommandLeaveSession},
		},
		{
			name:   "unknown type",
			in:     inbound(t, "subscribe", `{}`),
			reject: core.ErrCodeUnknownEvent,
		},
		{
			name:   "missing user",
			in:     inbound(t, proto.InboundTypeJoinSession, `{"sessionId":"1"}`),
			reject: core.ErrCodeValidation,
		},
		{
			name:   "blank user",
			in:     inbound(t, proto.InboundTypeGetSessions, `{"userId":"  "}`),
			reject: core.ErrCodeValidation,
		},
		{
			name:   "bad json",
			in:     inbound(t, proto.InboundTypeSendMessage, `"text"`),
			reject: core.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := inboundToCommand(anon, tt.in)
			if tt.reject != "" {
				require.Equal(t, core.CommandReject, cmd.Kind)
				require.Equal(t, tt.reject, cmd.Reject.Code)
				return
			}
			require.Equal(t, tt.want, *cmd)
		})
	}
}

func TestInboundToCommandUsesAuthenticatedUser(t *testing.T) {
	client := core.NewClient("c1", "alice", 4)

	cmd := inboundToCommand(client, inbound(t, proto.InboundTypeSendMessage, `{"userId":"mallory","sessionId":"1","message":"hi"}`))
	require.Equal(t, "alice", cmd.UserID)

	// The payload may omit userId entirely.
	cmd = inboundToCommand(client, inbound(t, proto.InboundTypeGetSessions, `{}`))
	require.Equal(t, core.CommandGetSessions, cmd.Kind)
	require.Equal(t, "alice", cmd.UserID)
}

func TestOutboundFromEvent(t *testing.T) {
	req := require.New(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	alice := "1"

	userMsg := &store.Message{ID: 10, SessionID: 3, SenderUserID: &alice, Sender: &store.User{ID: "1", Username: "alice"}, Content: "hi", CreatedAt: created}
	serverMsg := &store.Message{ID: 11, SessionID: 3, Content: "Echo: hi", IsServerMessage: true, CreatedAt: created}

	out := outboundFromEvent(&core.Event{Kind: core.EventNewMessage, Message: userMsg})
	req.Equal(proto.OutboundTypeEvent, out.Type)
	req.Equal(proto.EventNewMessage, out.Event)
	req.Equal(proto.Message{
		ID:        "10",
		Sender:    &proto.Sender{ID: "1", Username: "alice"},
		Content:   "hi",
		CreatedAt: "2024-05-01T12:00:00.000Z",
		Session:   "3",
	}, out.Data)

	out = outboundFromEvent(&core.Event{Kind: core.EventNewMessage, Message: serverMsg})
	req.Equal(&proto.Sender{Username: proto.ServerUsername}, out.Data.(proto.Message).Sender)

	out = outboundFromEvent(&core.Event{Kind: core.EventSessionJoined, SessionID: 3})
	joined := out.Data.(proto.SessionJoined)
	req.Equal("3", joined.SessionID)
	req.NotNil(joined.Messages)
	raw, err := json.Marshal(out)
	req.NoError(err)
	req.JSONEq(`{"type":"event","event":"session_joined","data":{"sessionId":"3","messages":[]}}`, string(raw))

	out = outboundFromEvent(&core.Event{Kind: core.EventSessionsList, Sessions: []*store.Session{
		{ID: 3, Name: "Session 1", OwnerUserID: "1", Owner: &store.User{ID: "1", Username: "alice"}, CreatedAt: created, Messages: []*store.Message{userMsg, serverMsg}},
	}})
	sessions := out.Data.([]proto.Session)
	req.Len(sessions, 1)
	req.Equal("3", sessions[0].ID)
	req.Equal("alice", sessions[0].Owner.Username)
	req.Len(sessions[0].Messages, 2)

	out = outboundFromEvent(&core.Event{Kind: core.EventError, Error: core.NewCoreError(core.ErrCodeSessionNotFound, "Failed to join session: session not found")})
	req.Equal(proto.OutboundTypeError, out.Type)
	req.Equal(proto.EventError, out.Event)
	req.Equal(proto.Error{Code: core.ErrCodeSessionNotFound, Message: "Failed to join session: session not found"}, out.Data)
}

func TestFormatTimeKeepsMilliseconds(t *testing.T) {
	req := require.New(t)
	local := time.FixedZone("UTC+3", 3*60*60)

	req.Equal("2024-05-01T09:00:00.123Z", formatTime(time.Date(2024, 5, 1, 12, 0, 0, 123456789, local)))
	req.Equal("2024-05-01T12:00:00.000Z", formatTime(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	req.Empty(formatTime(time.Time{}))
}
