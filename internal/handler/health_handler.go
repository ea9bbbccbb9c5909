package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/accounts_admin/internal/utils"
)

var startTime = time.Now()

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler provides health endpoint.
type HealthHandler struct {
	checks map[string]PingFunc
}

// NewHealthHandler creates a new HealthHandler with named dependency checks.
func NewHealthHandler(checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// GetHealth handles GET /v1/health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	healthy := true
	deps := gin.H{}
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			deps[name] = "disconnected"
			healthy = false
			continue
		}
		deps[name] = "connected"
	}

	if !healthy {
		utils.ErrorWithDetails(c, 503, "SERVICE_DEGRADED", "Service is degraded", deps)
		return
	}
	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":       "healthy",
		"uptime":       int(time.Since(startTime).Seconds()),
		"dependencies": deps,
	})
}
