package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/middleware"
	"basal-backend-go/internal/service"
	"basal-backend-go/pkg/log"
)

// IngestHandler handles the ingestion triggers. All of them reply before the
// heavy work runs; clients poll the record status afterwards.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// IngestDocument accepts one multipart document upload.
func (h *IngestHandler) IngestDocument(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

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

	result, err := h.ingestService.IngestDocument(
		c.Request.Context(),
		user,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// IngestVideoRequest is the video ingestion payload.
type IngestVideoRequest struct {
	URL string `json:"url" binding:"required"`
}

// IngestVideo accepts a video URL for transcription.
func (h *IngestHandler) IngestVideo(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req IngestVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	result, err := h.ingestService.IngestVideo(c.Request.Context(), user, req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetFolderRequest is the drive-folder batch payload.
type GetFolderRequest struct {
	FolderID    string `json:"folder_id" binding:"required"`
	GoogleToken string `json:"google_token" binding:"required"`
	Description string `json:"description"`
}

// GetFolder lists a drive folder and queues every supported file.
func (h *IngestHandler) GetFolder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req GetFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder_id and google_token are required"})
		return
	}

	result, err := h.ingestService.IngestFolder(c.Request.Context(), user, req.FolderID, req.GoogleToken, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Upload accepts a multipart batch of resumes plus the job description they
// are matched against.
func (h *IngestHandler) Upload(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}
	description := c.PostForm("description")

	uploads := make([]service.ResumeUpload, 0, len(fileHeaders))
	opened := make([]interface{ Close() error }, 0, len(fileHeaders))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			log.Warnf("skipping unreadable upload %s: %v", fh.Filename, err)
			continue
		}
		opened = append(opened, f)
		uploads = append(uploads, service.ResumeUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		})
	}

	queued, err := h.ingestService.UploadResumes(c.Request.Context(), user, uploads, description)
	if err != nil {
		if queued == 0 {
			respondError(c, err)
			return
		}
		// Partial batch: some files are already queued and billed, so the
		// reply reports what made it through.
		log.Warnf("upload batch stopped after %d of %d files: %v", queued, len(uploads), err)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Files queued for analysis.",
		"queued":  queued,
		"total":   len(uploads),
	})
}
