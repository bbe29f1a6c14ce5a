package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/service"
)

// HealthHandler serves the liveness endpoints.
type HealthHandler struct {
	systemService service.SystemService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(systemService service.SystemService) *HealthHandler {
	return &HealthHandler{systemService: systemService}
}

// Root answers the index probe.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Basal backend is running"})
}

// Health answers this service's own liveness.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MLHealth probes the remote compute service once. Waking a cold instance
// is the caller's problem; this reports the current state only.
func (h *HealthHandler) MLHealth(c *gin.Context) {
	if h.systemService.MLHealth(c.Request.Context()) {
		c.JSON(http.StatusOK, gin.H{"ml_server": "healthy"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"ml_server": "unavailable"})
}
