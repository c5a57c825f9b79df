package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/sessionchat/internal/core"
	"github.com/vovakirdan/sessionchat/internal/proto"
	"github.com/vovakirdan/sessionchat/internal/store"
)

// inboundToCommand decodes and validates an inbound envelope. Frames that cannot
// become a command yield a CommandReject carrying the error for the caller.
// An authenticated client's identity replaces any userId in the payload.
func inboundToCommand(client *core.Client, inbound proto.Inbound) *core.Command {
	switch inbound.Type {
	case proto.InboundTypeGetSessions:
		var data proto.GetSessionsData
		if ce := decodePayload(client, inbound, &data, &data.UserID); ce != nil {
			return reject(ce)
		}
		return &core.Command{Kind: core.CommandGetSessions, UserID: string(data.UserID)}
	case proto.InboundTypeJoinSession:
		var data proto.JoinSessionData
		if ce := decodePayload(client, inbound, &data, &data.UserID); ce != nil {
			return reject(ce)
		}
		return &core.Command{
			Kind:      core.CommandJoinSession,
			UserID:    string(data.UserID),
			SessionID: string(data.SessionID),
		}
	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if ce := decodePayload(client, inbound, &data, &data.UserID); ce != nil {
			return reject(ce)
		}
		return &core.Command{
			Kind:      core.CommandSendMessage,
			UserID:    string(data.UserID),
			SessionID: string(data.SessionID),
			Content:   data.Message,
		}
	case proto.InboundTypeLeaveSession:
		var data proto.LeaveSessionData
		if ce := decodePayload(client, inbound, &data, &data.UserID); ce != nil {
			return reject(ce)
		}
		return &core.Command{
			Kind:      core.CommandLeaveSession,
			UserID:    string(data.UserID),
			SessionID: string(data.SessionID),
		}
	default:
		return reject(core.NewCoreError(core.ErrCodeUnknownEvent, fmt.Sprintf("Unknown event type: %q", inbound.Type)))
	}
}

func decodePayload(client *core.Client, inbound proto.Inbound, payload any, userID *proto.ID) *core.CoreError {
	if len(inbound.Data) > 0 && string(inbound.Data) != "null" {
		if err := json.Unmarshal(inbound.Data, payload); err != nil {
			return core.NewCoreError(core.ErrCodeBadRequest, fmt.Sprintf("Invalid %s payload: %v", inbound.Type, err))
		}
	}
	if client.UserID != "" {
		*userID = proto.ID(client.UserID)
	}
	*userID = proto.ID(strings.TrimSpace(string(*userID)))
	if err := proto.Validate(payload); err != nil {
		return core.NewCoreError(core.ErrCodeValidation, fmt.Sprintf("Invalid %s payload: %v", inbound.Type, err))
	}
	return nil
}

func reject(ce *core.CoreError) *core.Command {
	return &core.Command{Kind: core.CommandReject, Reject: ce}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventSessionsList:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventSessionsList,
			Data:  toSessions(event.Sessions),
		}
	case core.EventSessionJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventSessionJoined,
			Data: proto.SessionJoined{
				SessionID: formatID(event.SessionID),
				Messages:  toMessages(event.Messages),
			},
		}
	case core.EventNewMessage:
		if event.Message == nil {
			break
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data:  toMessage(event.Message),
		}
	case core.EventError:
		if event.Error == nil {
			return errorOutbound(core.ErrCodeInternal, "unknown error")
		}
		return errorOutbound(event.Error.Code, event.Error.Message)
	}
	return errorOutbound(core.ErrCodeInternal, "unsupported event "+event.Kind.String())
}

func errorOutbound(code, message string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Event: proto.EventError,
		Data:  proto.Error{Code: code, Message: message},
	}
}

func toSessions(sessions []*store.Session) []proto.Session {
	return lo.Map(sessions, func(s *store.Session, _ int) proto.Session {
		return toSession(s)
	})
}

func toSession(s *store.Session) proto.Session {
	out := proto.Session{
		ID:          formatID(s.ID),
		Name:        s.Name,
		OwnerUserID: s.OwnerUserID,
		CreatedAt:   formatTime(s.CreatedAt),
		Messages:    toMessages(s.Messages),
	}
	if s.Owner != nil {
		out.Owner = &proto.Sender{ID: s.Owner.ID, Username: s.Owner.Username}
	}
	return out
}

// toMessages never returns nil so an empty history encodes as [].
func toMessages(messages []*store.Message) []proto.Message {
	return lo.Map(lo.Compact(messages), func(m *store.Message, _ int) proto.Message {
		return toMessage(m)
	})
}

func toMessage(m *store.Message) proto.Message {
	return proto.Message{
		ID:              formatID(m.ID),
		Sender:          toSender(m),
		Content:         m.Content,
		CreatedAt:       formatTime(m.CreatedAt),
		Session:         formatID(m.SessionID),
		IsServerMessage: m.IsServerMessage,
	}
}

func toSender(m *store.Message) *proto.Sender {
	switch {
	case m.IsServerMessage:
		return &proto.Sender{Username: proto.ServerUsername}
	case m.Sender != nil && m.Sender.Username != "":
		return &proto.Sender{ID: m.Sender.ID, Username: m.Sender.Username}
	case m.SenderUserID != nil:
		// Unknown users are shown by id.
		return &proto.Sender{ID: *m.SenderUserID, Username: *m.SenderUserID}
	default:
		return nil
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// timeLayout is ISO 8601 in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
