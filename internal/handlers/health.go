package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/rackplan/internal/database"
	"github.com/stwalsh4118/rackplan/internal/middleware"
	"github.com/stwalsh4118/rackplan/internal/reference"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for lookup store health checks
	HealthCheckTimeout = 2 * time.Second
)

// Lookup store states reported by the readiness check.
const (
	StoreConnected    = "connected"
	StoreDisconnected = "disconnected"
	StoreDisabled     = "disabled"
)

// Store is the part of the lookup store the readiness check needs.
// *database.Database implements it.
type Store interface {
	Ping(ctx context.Context) error
	Stats() database.PoolStats
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Store
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. db is nil when the
// lookup store is disabled.
func NewHealthHandler(db Store, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status      string              `json:"status"`
	LookupStore string              `json:"lookup_store"`
	Pool        *database.PoolStats `json:"pool,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version        string `json:"version"`
	Environment    string `json:"environment"`
	Uptime         string `json:"uptime"`
	MarketsVersion string `json:"markets_version"`
}

// Health handles GET /health endpoint.
// This is a basic liveness check that always returns 200 OK.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 503 only when the lookup store is enabled and unreachable; lookups
// still work without it, but a configured store that is down is a deploy fault.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, ReadyResponse{
			Status:      "ready",
			LookupStore: StoreDisabled,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Lookup store health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:      "not_ready",
			LookupStore: StoreDisconnected,
		})
		return
	}

	stats := h.db.Stats()
	c.JSON(http.StatusOK, ReadyResponse{
		Status:      "ready",
		LookupStore: StoreConnected,
		Pool:        &stats,
	})
}

// Info handles GET /api/v1/info endpoint.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:        APIVersion,
		Environment:    h.env,
		Uptime:         formatUptime(time.Since(h.startTime)),
		MarketsVersion: reference.MarketsVersion(),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
