package api

import (
	"log/slog"

	"chatnotifier/internal/api/handlers"
	"chatnotifier/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Dispatcher handlers.Dispatcher
	Readiness  handlers.Readiness
	APIKey     string
	Logger     *slog.Logger
}

// NewRouter creates and configures the Gin router. The call endpoint is the only
// way to reach the subsystem.
func NewRouter(config RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.ContentType())

	// Health check (no auth)
	healthHandler := handlers.NewHealthHandler(config.Readiness)
	router.GET("/health", healthHandler.GetHealth)

	// API v1 routes (with authentication)
	v1 := router.Group("/v1")
	v1.Use(middleware.APIKey(config.APIKey))
	{
		callHandler := handlers.NewCallHandler(config.Dispatcher, config.Logger)
		v1.POST("/call", callHandler.Call)
	}

	return router
}
