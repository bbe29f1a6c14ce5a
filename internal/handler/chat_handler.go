package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/middleware"
	"basal-backend-go/internal/service"
)

// ChatHandler handles retrieval-augmented chat and conversation reads.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest is one chat turn. ConversationID is optional; leaving it out
// starts a new conversation.
type ChatRequest struct {
	SourceID       string `json:"source_id" binding:"required"`
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question" binding:"required"`
}

// Chat runs one exchange against a source.
func (h *ChatHandler) Chat(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_id and question are required"})
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), user, req.SourceID, req.ConversationID, req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListConversations returns the user's conversations, newest first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	convs, err := h.chatService.ListConversations(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// Messages returns one conversation's message log, oldest first.
func (h *ChatHandler) Messages(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	msgs, err := h.chatService.Messages(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
