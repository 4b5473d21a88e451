package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vidstream-go/internal/app"
)

// HealthHandler handles health and stats requests
type HealthHandler struct {
	registry  *app.Registry
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *app.Registry) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		startedAt: time.Now(),
	}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "OK",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"activeDownloads": h.registry.Count(),
		"uptime":          time.Since(h.startedAt).Seconds(),
	})
}

// Stats handles GET /api/stats
func (h *HealthHandler) Stats(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"activeDownloads": h.registry.List(),
		"memoryUsage": gin.H{
			"alloc":      mem.Alloc,
			"totalAlloc": mem.TotalAlloc,
			"sys":        mem.Sys,
			"numGC":      mem.NumGC,
		},
		"uptime": time.Since(h.startedAt).Seconds(),
	})
}
