package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/pkg/cache"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

const (
	serviceName    = "theo-core"
	serviceVersion = "v0.1.0"
)

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	cache  cache.ValkeyCluster // may be nil
	logger logger.Logger
}

func NewHealthHandler(store Pinger, c cache.ValkeyCluster, logger logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, cache: c, logger: logger}
}

// GET /health - process liveness only
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - database and cache reachability. The cache is advisory: a
// cache outage is reported but does not fail readiness.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("Readiness: database unreachable", "error", err)
		checks["database"] = "unhealthy"
		ready = false
	} else {
		checks["database"] = "healthy"
	}

	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			h.logger.Warn("Readiness: cache unreachable", "error", err)
			checks["cache"] = "degraded"
		} else {
			checks["cache"] = "healthy"
		}
	}

	status, httpStatus := "ready", http.StatusOK
	if !ready {
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{
		"status":    status,
		"service":   serviceName,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
