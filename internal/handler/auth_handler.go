package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/middleware"
	"basal-backend-go/internal/service"
	"basal-backend-go/pkg/log"
)

// AuthHandler handles sessions and the user's own profile.
type AuthHandler struct {
	userService   service.UserService
	systemService service.SystemService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService service.UserService, systemService service.SystemService) *AuthHandler {
	return &AuthHandler{userService: userService, systemService: systemService}
}

// ConnectRequest is the login-or-register payload.
type ConnectRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Connect logs the account in, creating it on first contact. A session
// start is the earliest signal that expensive work is coming, so the remote
// compute service gets a warm-up ping here.
func (h *AuthHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, jwt, created, err := h.userService.Connect(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.systemService.WarmUp()

	if created {
		log.Infof("new account registered: %s", user.Email)
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   jwt,
		"email":   user.Email,
		"is_new":  created,
		"credits": user.Credits,
		"user_id": user.ID.String(),
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	profile, err := h.userService.Me(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
