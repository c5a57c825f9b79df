package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/sessionchat/internal/auth"
	"github.com/vovakirdan/sessionchat/internal/config"
	"github.com/vovakirdan/sessionchat/internal/core"
	"github.com/vovakirdan/sessionchat/internal/proto"
	"github.com/vovakirdan/sessionchat/internal/store"
	"github.com/vovakirdan/sessionchat/internal/store/memory"
)

const testSecret = "test-secret"

type testEnv struct {
	ts    *httptest.Server
	store store.Store
	auth  *auth.Service
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.StoreDriver = "memory"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	nop := zerolog.Nop()
	st := memory.New()

	var authService *auth.Service
	if cfg.AuthEnabled() {
		authService = auth.NewService(st, &auth.JWTConfig{
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			TTL:      time.Hour,
		})
	}

	router := core.NewRouter(&nop)
	handler := core.NewHandler(st, router, core.NewEchoResponder(cfg.EchoPrefix), core.HandlerOptions{
		StoreTimeout: cfg.StoreTimeout,
		Logger:       &nop,
	})
	hub := core.NewHub(handler, &nop)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	server := NewServer(hub, authService, st, &cfg, &nop)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		<-done
		ts.Close()
	})

	return &testEnv{ts: ts, store: st, auth: authService}
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, query string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws" + query
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// frame is an outbound envelope with its data left raw for typed decoding.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()

	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func readEvent[T any](t *testing.T, ctx context.Context, conn *websocket.Conn, event string) T {
	t.Helper()

	f := readFrame(t, ctx, conn)
	if f.Event != event {
		t.Fatalf("expected %s event, got %s/%s: %s", event, f.Type, f.Event, f.Data)
	}
	var out T
	if err := json.Unmarshal(f.Data, &out); err != nil {
		t.Fatalf("decode %s: %v", event, err)
	}
	return out
}
