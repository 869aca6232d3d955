package http

import (
	"context"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/chatrelay/internal/core"
)

// wsConn adapts a WebSocket to core.Conn. Writes are safe for concurrent use,
// so the hub may fan out to it from any goroutine.
type wsConn struct {
	id   string
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, ev *core.Event) error {
	return wsjson.Write(ctx, c.conn, outboundFromEvent(ev))
}

// Close drops the connection without waiting for the peer's close frame.
func (c *wsConn) Close() error {
	return c.conn.CloseNow()
}

// acceptOptions converts CORS origins into WebSocket origin patterns.
// A "*" entry disables the origin check entirely.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
			continue
		}
		if origin != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, origin)
		}
	}
	return opts
}
