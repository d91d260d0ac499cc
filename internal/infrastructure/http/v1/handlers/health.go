package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocky/internal/infrastructure/storage/postgres"
)

// Pinger is the database dependency of the health endpoints.
type Pinger interface {
	Ping(ctx context.Context) error
	Stats() postgres.PoolStats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	pool    Pinger
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool Pinger, version string) *HealthHandler {
	return &HealthHandler{pool: pool, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health and /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": map[string]string{"database": "not configured"}})
		return
	}
	if err := h.pool.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns the version and the pool counters.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{"app": "stocky", "version": h.version}
	if h.pool != nil {
		info["database"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, info)
}

// RegisterRoutes registers health routes.
func (h *HealthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.Ready)
	r.GET("/live", h.Live)
	r.GET("/ready", h.Ready)
	r.GET("/info", h.Info)
}
