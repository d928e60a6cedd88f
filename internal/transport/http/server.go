package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hivemind/hivemind-server/internal/assist"
	"github.com/hivemind/hivemind-server/internal/config"
	"github.com/hivemind/hivemind-server/internal/core"
	"github.com/hivemind/hivemind-server/internal/identity"
	"github.com/hivemind/hivemind-server/internal/sandbox"
)

// NewServer builds the HTTP server: the collaborative websocket endpoint,
// a health check, and the credential-gated assist API.
func NewServer(
	hub *core.Hub,
	runner *sandbox.Runner,
	verifier identity.Verifier,
	assistSvc *assist.Service,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, runner, verifier, logger)))

	assistHandlers := NewAssistHandlers(assistSvc, logger)
	api := router.Group("/api/assist")
	api.Use(AuthMiddleware(verifier, logger))
	{
		api.POST("/generate", assistHandlers.Generate)
		api.POST("/explain", assistHandlers.Explain)
		api.POST("/debug", assistHandlers.Debug)
		api.POST("/complete", assistHandlers.Complete)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "OK"})
}
