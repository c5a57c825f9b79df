package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/sessionchat/internal/app"
	"github.com/vovakirdan/sessionchat/internal/config"
	"github.com/vovakirdan/sessionchat/internal/proto"
)

func startGateway(t *testing.T) string {
	t.Helper()

	cfg := config.Default()
	cfg.StoreDriver = "memory"
	logger := zerolog.Nop()
	a, err := app.New(&cfg, &logger)
	require.NoError(t, err)

	ts := httptest.NewServer(a.Handler())
	t.Cleanup(ts.Close)
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

func nextFrame(t *testing.T, ctx context.Context, c *Client, event string) Frame {
	t.Helper()
	f, err := c.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, event, f.Event, "data: %s", f.Data)
	return f
}

func TestClientSessionFlow(t *testing.T) {
	req := require.New(t)
	url := startGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, Options{URL: url, UserID: "7"})
	req.NoError(err)
	defer c.Close()

	var out bytes.Buffer
	req.NoError(c.Join(ctx, ""))
	nextFrame(t, ctx, c, proto.EventSessionJoined)
	req.NotEmpty(c.Session())

	req.NoError(c.handleLine(ctx, "hello there", &out))
	f := nextFrame(t, ctx, c, proto.EventNewMessage)
	req.Contains(Render(f), "7: hello there")
	f = nextFrame(t, ctx, c, proto.EventNewMessage)
	req.Contains(Render(f), "Server: Echo: hello there")

	req.NoError(c.handleLine(ctx, "/list", &out))
	f = nextFrame(t, ctx, c, proto.EventSessionsList)
	req.Contains(Render(f), "2 messages")

	req.NoError(c.handleLine(ctx, "/join nope", &out))
	f = nextFrame(t, ctx, c, proto.EventError)
	req.Contains(Render(f), "invalid_session_id")

	req.NoError(c.handleLine(ctx, "/leave", &out))
	req.Empty(c.Session())
	req.NoError(c.handleLine(ctx, "orphan", &out))
	req.Contains(out.String(), "not in a session yet")
}

func TestRender(t *testing.T) {
	mustFrame := func(event string, data any) Frame {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		return Frame{Type: proto.OutboundTypeEvent, Event: event, Data: raw}
	}

	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{
			name:  "message",
			frame: mustFrame(proto.EventNewMessage, proto.Message{Session: "3", Sender: &proto.Sender{ID: "1", Username: "alice"}, Content: "hi"}),
			want:  "[session 3] alice: hi",
		},
		{
			name:  "message without sender",
			frame: mustFrame(proto.EventNewMessage, proto.Message{Session: "3", Content: "hi"}),
			want:  "[session 3] unknown: hi",
		},
		{
			name:  "empty list",
			frame: mustFrame(proto.EventSessionsList, []proto.Session{}),
			want:  "no sessions",
		},
		{
			name:  "error",
			frame: mustFrame(proto.EventError, proto.Error{Code: "session_not_found", Message: "nope"}),
			want:  "error [session_not_found]: nope",
		},
		{
			name:  "joined",
			frame: mustFrame(proto.EventSessionJoined, proto.SessionJoined{SessionID: "4", Messages: []proto.Message{}}),
			want:  "joined session 4 (0 messages)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Render(tt.frame))
		})
	}
}

func TestSmoke(t *testing.T) {
	url := startGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen, err := Smoke(ctx, Options{URL: url, UserID: "smoke"}, "ping")
	require.NoError(t, err)
	require.Len(t, seen, 3)
	require.Contains(t, seen[2], "Server: Echo: ping")

	_, err = Smoke(ctx, Options{URL: url, UserID: "smoke", SessionID: "404"}, "ping")
	require.ErrorContains(t, err, "session_not_found")
}
