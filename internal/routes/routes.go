package routes

import (
	"net/http"

	"twobeats/internal/handlers"
	"twobeats/internal/logger"
	"twobeats/internal/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers every HTTP and WebSocket route.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.Handler,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.TagHandler.RegisterRoutes(api)
		appHandlers.UploadHandler.RegisterRoutes(api)
		appHandlers.MusicHandler.RegisterRoutes(api)
		appHandlers.VideoHandler.RegisterRoutes(api)
		appHandlers.InteractionHandler.RegisterRoutes(api)
		appHandlers.FileHandler.RegisterRoutes(api)
	}

	if wsHandler != nil {
		ginRouter.GET("/ws", wsHandler.ServeWS)
		logger.Debug("WebSocket route /ws registered")
	}
}
