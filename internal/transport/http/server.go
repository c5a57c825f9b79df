package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/sessionchat/internal/auth"
	"github.com/vovakirdan/sessionchat/internal/config"
	"github.com/vovakirdan/sessionchat/internal/core"
	"github.com/vovakirdan/sessionchat/internal/proto"
	"github.com/vovakirdan/sessionchat/internal/store"
)

// NewServer builds an HTTP server with the WebSocket gateway and REST session views.
// authService may be nil, in which case connections are anonymous and clients name
// themselves through the userId field of each payload.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, proto.Health{Status: "ok", Protocol: proto.ProtocolVersion})
	})

	wsHandler := NewWSHandler(hub, cfg, logger)
	router.GET("/ws", AuthMiddleware(authService, logger), wsHandler.Handle)

	sessionHandlers := NewSessionHandlers(st, logger)
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService, logger))
	{
		api.GET("/sessions", sessionHandlers.ListSessions)
		api.GET("/sessions/:id", sessionHandlers.GetSession)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
