package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/dto"
	"odras.app/odras/internal/http/middleware"
	"odras.app/odras/internal/store"
)

type FileHandler struct {
	files store.FileStore
}

func NewFileHandler(files store.FileStore) *FileHandler {
	return &FileHandler{files: files}
}

// Upload records file metadata from a multipart form. The blob itself is
// handled by an external storage service.
func (h *FileHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file := &store.File{
		ProjectID:   c.PostForm("project_id"),
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: contentTypeOf(header),
	}
	if actor, ok := middleware.ActorFrom(ctx); ok {
		file.UploadedBy = actor.UserID
	}

	created, err := h.files.Create(ctx, file)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record file upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record upload"})
		return
	}

	c.JSON(http.StatusCreated, dto.FileResponse{
		FileID:      created.ID,
		ProjectID:   created.ProjectID,
		Filename:    created.Filename,
		Size:        created.Size,
		ContentType: created.ContentType,
		CreatedAt:   created.CreatedAt,
	})
}

func (h *FileHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	fileID := c.Param("file_id")

	if err := h.files.Delete(ctx, fileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete file", "error", err, "file_id", fileID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
		return
	}

	c.Status(http.StatusNoContent)
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
