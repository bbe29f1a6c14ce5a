package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/middleware"
	"basal-backend-go/internal/service"
)

// SourceHandler lists sources and receives the processing-side sync
// callbacks.
type SourceHandler struct {
	sourceService service.SourceService
}

// NewSourceHandler creates a new SourceHandler.
func NewSourceHandler(sourceService service.SourceService) *SourceHandler {
	return &SourceHandler{sourceService: sourceService}
}

// List returns the authenticated user's sources.
func (h *SourceHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	sources, err := h.sourceService.ListByUser(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// UpdateStatusRequest is the status sync payload.
type UpdateStatusRequest struct {
	SourceID string `json:"source_id" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// UpdateStatus moves a source to the status the processing side reports.
func (h *SourceHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_id and status are required"})
		return
	}
	if err := h.sourceService.UpdateStatus(req.SourceID, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// UpdateChunksRequest is the chunk sync payload.
type UpdateChunksRequest struct {
	SourceID string                 `json:"source_id" binding:"required"`
	Chunks   []service.ChunkPayload `json:"chunks" binding:"required"`
}

// UpdateChunks replaces the source's full chunk set.
func (h *SourceHandler) UpdateChunks(c *gin.Context) {
	var req UpdateChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_id and chunks are required"})
		return
	}
	if err := h.sourceService.ReplaceChunks(req.SourceID, req.Chunks); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "chunks synced", "count": len(req.Chunks)})
}
