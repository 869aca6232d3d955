package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/metrics"
	"github.com/vovakirdan/chatrelay/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub     *core.Hub
	metrics *metrics.Metrics
	cfg     *config.Config
	accept  *websocket.AcceptOptions
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		metrics: m,
		cfg:     cfg,
		accept:  acceptOptions(cfg.CORSOrigins),
		log:     logger,
	}
}

// Serve runs one chat session.
// GET /ws/:room?username=
func (h *WSHandler) Serve(c *gin.Context) {
	room := c.Param("room")
	username := c.Query("username")
	if username == "" {
		username = core.DefaultUsername
	}

	conn, err := websocket.Accept(rawWriter(c.Writer), c.Request, h.accept)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	member := &wsConn{id: utils.NewID(), conn: conn}
	log := h.log.With().Str("conn_id", member.id).Str("room", room).Str("user", username).Logger()

	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := h.hub.Join(ctx, member, room, username); err != nil {
		log.Warn().Err(err).Msg("join failed")
		conn.Close(websocket.StatusPolicyViolation, core.ErrorCode(err))
		return
	}
	log.Info().Msg("session started")

	err = h.readLoop(ctx, member, room, username, &log)

	left, ok := h.hub.Leave(member)
	if !ok {
		// The hub already dropped us: evicted after a failed send or shut down.
		log.Debug().Err(err).Msg("session ended by hub")
		return
	}
	h.hub.BroadcastSystem(ctx, left.Room, left.Username+" left")
	h.hub.BroadcastUsers(ctx, left.Room)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "read error"
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}
	log.Info().Msg("session ended")

	conn.Close(status, reason)
}

// rawWriter returns the writer underneath gin's wrapper. Accept writes the
// 101 response before hijacking, and gin refuses to hijack once written.
func rawWriter(w gin.ResponseWriter) stdhttp.ResponseWriter {
	if u, ok := w.(interface{ Unwrap() stdhttp.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return w
}

func (h *WSHandler) readLoop(ctx context.Context, member *wsConn, room, username string, log *zerolog.Logger) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerSecond, h.cfg.RateLimitBurst)
	for {
		typ, data, err := member.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.drop(log, dropBinary)
			continue
		}

		content, reason := inboundToMessage(data)
		if reason != "" {
			h.drop(log, reason)
			continue
		}
		if !limiter.allow() {
			h.drop(log, dropRateLimited)
			continue
		}

		h.hub.BroadcastMessage(ctx, room, username, content)
	}
}

func (h *WSHandler) drop(log *zerolog.Logger, reason string) {
	h.metrics.InboundDropped(reason)
	log.Debug().Str("reason", reason).Msg("inbound frame dropped")
}
