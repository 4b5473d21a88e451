package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/api/handlers"
	"github.com/yourusername/vidstream-go/api/middleware"
	"github.com/yourusername/vidstream-go/internal/app"
	"github.com/yourusername/vidstream-go/internal/domain"
	"github.com/yourusername/vidstream-go/pkg/events"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	provider domain.Provider,
	registry *app.Registry,
	publisher *app.Publisher,
	pipe *app.Pipe,
	hub *events.Hub,
	log *zap.Logger,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Subscriber event channel
	eventHandler := handlers.NewEventSocketHandler(hub, log)
	router.GET("/ws", eventHandler.Handle)

	// API routes
	videoHandler := handlers.NewVideoHandler(provider, publisher, log)
	downloadHandler := handlers.NewDownloadHandler(provider, registry, publisher, pipe, log)
	healthHandler := handlers.NewHealthHandler(registry)

	api := router.Group("/api")
	{
		api.POST("/info", videoHandler.Info)
		api.POST("/download", downloadHandler.Download)
		api.GET("/health", healthHandler.Health)
		api.GET("/stats", healthHandler.Stats)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"success": false, "error": "not found"})
	})

	return router
}
