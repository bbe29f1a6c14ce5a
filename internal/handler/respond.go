// Package handler contains the HTTP controllers.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/service"
	"basal-backend-go/pkg/log"
)

// respondError maps the service error taxonomy onto status codes. Anything
// outside the taxonomy is a 500 and gets logged here, once.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidID), errors.Is(err, service.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoCredits):
		c.JSON(http.StatusForbidden, gin.H{"error": "You have 0 Credits left"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "ml service error"})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ml service unavailable"})
	default:
		log.Errorf("unhandled service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
