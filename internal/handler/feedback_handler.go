package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/service"
)

// FeedbackHandler accepts feedback submissions. No session required.
type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// FeedbackRequest is the submission payload.
type FeedbackRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Category string `json:"category"`
	Content  string `json:"content" binding:"required"`
}

// Submit records one feedback entry.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and content are required"})
		return
	}
	feedback, err := h.feedbackService.Submit(req.Email, req.Category, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "feedback received", "id": feedback.ID.String()})
}
