package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"basal-backend-go/pkg/extract"
)

// DescribeHandler turns an uploaded job-description document into plain text
// through the extraction sidecar.
type DescribeHandler struct {
	extractor *extract.Client
}

// NewDescribeHandler creates a new DescribeHandler.
func NewDescribeHandler(extractor *extract.Client) *DescribeHandler {
	return &DescribeHandler{extractor: extractor}
}

// GetDescription extracts the text of one uploaded file.
func (h *DescribeHandler) GetDescription(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	text, err := h.extractor.Text(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "text extraction failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": strings.TrimSpace(text)})
}
