// Package chatclient is a small interactive WebSocket client for the chat gateway.
package chatclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/samber/lo"

	"github.com/vovakirdan/sessionchat/internal/proto"
)

// Options configures a chat run.
type Options struct {
	URL       string
	UserID    string
	SessionID string // empty creates a new session
	Token     string
}

// Frame is an outbound server envelope with its payload left undecoded.
type Frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client holds one connection and the session it currently writes to.
type Client struct {
	conn   *websocket.Conn
	userID string

	mu      sync.Mutex
	session string
}

// Dial connects to the gateway.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	var dialOpts *websocket.DialOptions
	if opts.Token != "" {
		dialOpts = &websocket.DialOptions{
			HTTPHeader: http.Header{"Authorization": []string{"Bearer " + opts.Token}},
		}
	}
	conn, _, err := websocket.Dial(ctx, opts.URL, dialOpts)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn, userID: opts.UserID}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Session returns the id of the last joined session.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(id string) {
	c.mu.Lock()
	c.session = id
	c.mu.Unlock()
}

// Send writes one inbound envelope.
func (c *Client) Send(ctx context.Context, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	return wsjson.Write(ctx, c.conn, proto.Inbound{Type: typ, Data: payload})
}

// Join joins sessionID, or creates a session when it is empty.
func (c *Client) Join(ctx context.Context, sessionID string) error {
	return c.Send(ctx, proto.InboundTypeJoinSession, proto.JoinSessionData{
		UserID:    proto.ID(c.userID),
		SessionID: proto.ID(sessionID),
	})
}

// Read blocks for the next server frame.
func (c *Client) Read(ctx context.Context) (Frame, error) {
	var f Frame
	err := wsjson.Read(ctx, c.conn, &f)
	if err == nil && f.Event == proto.EventSessionJoined {
		var joined proto.SessionJoined
		if json.Unmarshal(f.Data, &joined) == nil {
			c.setSession(joined.SessionID)
		}
	}
	return f, err
}

// Run joins the configured session and relays lines from in until in is exhausted or
// ctx ends. Lines starting with a slash are commands: /new, /join <id>, /leave, /list.
func Run(ctx context.Context, opts Options, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := Dial(ctx, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Join(ctx, opts.SessionID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s as %s. Type messages and press Enter; /help lists commands.\n", opts.URL, opts.UserID)

	readErr := make(chan error, 1)
	go func() {
		defer cancel()
		readErr <- c.readLoop(ctx, out)
	}()

	if err := c.writeLoop(ctx, in, out); err != nil {
		return err
	}
	cancel()
	if err := <-readErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, out io.Writer) error {
	for {
		f, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return err
		}
		fmt.Fprintln(out, Render(f))
	}
}

func (c *Client) writeLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.handleLine(ctx, strings.TrimSpace(line), out); err != nil {
				return err
			}
		}
	}
}

func (c *Client) handleLine(ctx context.Context, line string, out io.Writer) error {
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		session := c.Session()
		if session == "" {
			fmt.Fprintln(out, "not in a session yet")
			return nil
		}
		return c.Send(ctx, proto.InboundTypeSendMessage, proto.SendMessageData{
			UserID:    proto.ID(c.userID),
			SessionID: proto.ID(session),
			Message:   line,
		})
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/new":
		return c.Join(ctx, "")
	case "/join":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: /join <session id>")
			return nil
		}
		return c.Join(ctx, fields[1])
	case "/leave":
		session := c.Session()
		c.setSession("")
		return c.Send(ctx, proto.InboundTypeLeaveSession, proto.LeaveSessionData{
			UserID:    proto.ID(c.userID),
			SessionID: proto.ID(session),
		})
	case "/list":
		return c.Send(ctx, proto.InboundTypeGetSessions, proto.GetSessionsData{UserID: proto.ID(c.userID)})
	default:
		fmt.Fprintln(out, "commands: /new, /join <id>, /leave, /list")
		return nil
	}
}

// Render formats a server frame for the terminal.
func Render(f Frame) string {
	switch f.Event {
	case proto.EventNewMessage:
		var msg proto.Message
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			return "bad message: " + err.Error()
		}
		return fmt.Sprintf("[session %s] %s: %s", msg.Session, senderName(msg.Sender), msg.Content)
	case proto.EventSessionJoined:
		var joined proto.SessionJoined
		if err := json.Unmarshal(f.Data, &joined); err != nil {
			return "bad session_joined: " + err.Error()
		}
		lines := []string{fmt.Sprintf("joined session %s (%d messages)", joined.SessionID, len(joined.Messages))}
		for _, msg := range joined.Messages {
			lines = append(lines, fmt.Sprintf("  %s: %s", senderName(msg.Sender), msg.Content))
		}
		return strings.Join(lines, "\n")
	case proto.EventSessionsList:
		var sessions []proto.Session
		if err := json.Unmarshal(f.Data, &sessions); err != nil {
			return "bad sessions_list: " + err.Error()
		}
		if len(sessions) == 0 {
			return "no sessions"
		}
		return strings.Join(lo.Map(sessions, func(s proto.Session, _ int) string {
			return fmt.Sprintf("%s\t%s\t%d messages", s.ID, s.Name, len(s.Messages))
		}), "\n")
	case proto.EventError:
		var e proto.Error
		if err := json.Unmarshal(f.Data, &e); err != nil {
			return "bad error: " + err.Error()
		}
		return fmt.Sprintf("error [%s]: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("event=%s data=%s", f.Event, f.Data)
	}
}

func senderName(s *proto.Sender) string {
	if s == nil {
		return "unknown"
	}
	if s.Username != "" {
		return s.Username
	}
	return s.ID
}

// Smoke creates a session, sends text and waits until the automatic reply arrives.
// It returns the rendered frames it saw.
func Smoke(ctx context.Context, opts Options, text string) ([]string, error) {
	c, err := Dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := c.Join(ctx, opts.SessionID); err != nil {
		return nil, err
	}

	var seen []string
	for {
		f, err := c.Read(ctx)
		if err != nil {
			return seen, fmt.Errorf("read: %w", err)
		}
		seen = append(seen, Render(f))

		switch f.Event {
		case proto.EventError:
			return seen, errors.New(Render(f))
		case proto.EventSessionJoined:
			if err := c.handleLine(ctx, text, io.Discard); err != nil {
				return seen, err
			}
		case proto.EventNewMessage:
			var msg proto.Message
			if json.Unmarshal(f.Data, &msg) == nil && msg.IsServerMessage {
				return seen, nil
			}
		}
	}
}
