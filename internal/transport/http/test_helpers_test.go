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

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/metrics"
	"github.com/vovakirdan/chatrelay/internal/proto"
)

type testServer struct {
	*httptest.Server
	hub *core.Hub
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.SendTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	disabledLogger := zerolog.New(nil)
	m := metrics.New()
	hub := core.NewHub(core.WithMetrics(m), core.WithSendTimeout(cfg.SendTimeout))

	ts := httptest.NewServer(NewHandler(hub, m, &cfg, &disabledLogger))
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
		ts.Close()
	})
	return &testServer{Server: ts, hub: hub}
}

func (ts *testServer) dial(t *testing.T, ctx context.Context, room, username string) *websocket.Conn {
	t.Helper()

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/ws/" + room
	if username != "" {
		url += "?username=" + username
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Event {
	t.Helper()

	var ev proto.Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, payload string) {
	t.Helper()
	if err := conn.Write(ctx, websocket.MessageText, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func sendJSON(t *testing.T, ctx context.Context, conn *websocket.Conn, v any) {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	send(t, ctx, conn, string(payload))
}

// nopConn is a hub member that accepts and discards every event. The field
// keeps distinct instances at distinct addresses.
type nopConn struct{ _ byte }

func (*nopConn) Send(context.Context, *core.Event) error { return nil }
func (*nopConn) Close() error                             { return nil }
