package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the coarse service state reported by /health.
type HealthStatus string

const (
	// HealthStatusHealthy means every model artifact is loaded.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded means the service predicts but without the
	// optional priority model.
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      HealthStatus `json:"status"`
	Service     string       `json:"service"`
	Version     string       `json:"version"`
	Uptime      string       `json:"uptime,omitempty"`
	HasPriority bool         `json:"has_priority"`
}

// Health handles GET /health.
func (h *Handler) Health(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := HealthStatusHealthy
		if !h.predictor.HasPriority() {
			status = HealthStatusDegraded
		}
		c.JSON(http.StatusOK, HealthResponse{
			Status:      status,
			Service:     h.cfg.Service.Name,
			Version:     h.cfg.Service.Version,
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			HasPriority: h.predictor.HasPriority(),
		})
	}
}

// HeadHealth handles HEAD /health for load balancers.
func (h *Handler) HeadHealth(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Ready handles GET /ready. The bundle is loaded before the server
// starts, so readiness reduces to "the process is serving".
func (h *Handler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":      true,
		"categories": len(h.predictor.Labels()),
	})
}
