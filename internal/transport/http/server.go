package http

import (
	"io/fs"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/metrics"
	"github.com/vovakirdan/chatrelay/web"
)

// NewServer builds the HTTP server: room API, WebSocket sessions, metrics and
// the bundled web client.
func NewServer(hub *core.Hub, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(hub, m, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler builds the router wrapped in CORS.
func NewHandler(hub *core.Hub, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RecoveryMiddleware(logger), LoggerMiddleware(logger))

	rooms := NewRoomHandlers(hub, logger)
	ws := NewWSHandler(hub, m, cfg, logger)

	router.GET("/health", rooms.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.GET("/rooms", rooms.ListRooms)
	router.POST("/rooms/:room", rooms.CreateRoom)
	router.GET("/rooms/:room/users", rooms.RoomUsers)

	router.GET("/ws/:room", ws.Serve)

	static := web.Static()
	router.StaticFS("/static", stdhttp.FS(static))
	router.GET("/", indexHandler(static, logger))

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(router)
}

// indexHandler serves index.html directly; http.FileServer would redirect it to "/".
func indexHandler(static fs.FS, logger *zerolog.Logger) gin.HandlerFunc {
	page, err := fs.ReadFile(static, "index.html")
	if err != nil {
		logger.Error().Err(err).Msg("web client missing index.html")
	}
	return func(c *gin.Context) {
		if page == nil {
			c.Status(stdhttp.StatusNotFound)
			return
		}
		c.Data(stdhttp.StatusOK, "text/html; charset=utf-8", page)
	}
}
