package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Readiness reports whether the subsystem is initialized
type Readiness interface {
	IsInitialized() bool
}

// HealthHandler handles health check requests
type HealthHandler struct {
	readiness Readiness
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(readiness Readiness) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

// GetHealth returns the health status of the service
// GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "UP",
		"service":     "chatnotifier",
		"initialized": h.readiness.IsInitialized(),
	})
}
