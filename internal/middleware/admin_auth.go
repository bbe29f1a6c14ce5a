package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/model"
)

// AdminAuth rejects non-admin users. Must run after Auth.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			return
		}
		if user.Role != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}
