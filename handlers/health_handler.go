package handlers

import (
	"net/http"

	"legalresearch-backend/config"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves health and service information endpoints
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "deep-legal-research",
		"version":      config.AppVersion,
		"cors_origins": h.cfg.AllowedOrigins(),
		"debug":        h.cfg.Debug,
	})
}

// APIHealth handles GET /api/v1/health/
func (h *HealthHandler) APIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "deep-legal-research-api",
		"version": config.AppVersion,
	})
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":      config.AppName + " API",
		"version":      config.AppVersion,
		"health":       "/health",
		"cors_origins": h.cfg.AllowedOrigins(),
	})
}
