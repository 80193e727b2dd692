package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"gorm.io/gorm"

	"github.com/ekenesbek/8pilot/pkg/database"
)

// HealthHandler serves the health probes.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Ping is the basic health check.
// @Summary Ping
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *HealthHandler) Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(200, utils.H{
		"status":  "ok",
		"message": "pong",
	})
}

// Readiness checks the service and its dependencies.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) Readiness(ctx context.Context, c *app.RequestContext) {
	if err := database.Ping(ctx, h.db); err != nil {
		c.JSON(503, utils.H{
			"status":   "not_ready",
			"database": "unhealthy",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(200, utils.H{
		"status":   "ready",
		"database": "healthy",
	})
}

// Liveness reports the process is alive.
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) Liveness(ctx context.Context, c *app.RequestContext) {
	c.JSON(200, utils.H{
		"status": "alive",
	})
}
