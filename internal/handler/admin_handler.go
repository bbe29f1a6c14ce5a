package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/service"
)

// AdminHandler serves the operator aggregates. Routes using it sit behind
// the admin middleware.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Sources lists every source across all users.
func (h *AdminHandler) Sources(c *gin.Context) {
	sources, err := h.adminService.AllSources()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources, "total": len(sources)})
}

// Conversations lists every conversation across all users.
func (h *AdminHandler) Conversations(c *gin.Context) {
	convs, err := h.adminService.AllConversations()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs, "total": len(convs)})
}
