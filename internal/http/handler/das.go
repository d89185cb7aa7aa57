package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/das"
	"odras.app/odras/internal/http/dto"
	"odras.app/odras/internal/thread"
)

type DASHandler struct {
	assistant *das.Assistant
	threads   thread.Bootstrapper
}

func NewDASHandler(assistant *das.Assistant, threads thread.Bootstrapper) *DASHandler {
	return &DASHandler{
		assistant: assistant,
		threads:   threads,
	}
}

func (h *DASHandler) Ask(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is not configured"})
		return
	}

	answer, err := h.assistant.Ask(ctx, req.ProjectID, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "assistant request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assistant request failed"})
		return
	}

	c.JSON(http.StatusOK, dto.AskResponse{
		Answer:     answer.Answer,
		Confidence: answer.Confidence,
		Sources:    answer.Sources,
	})
}

// CreateThread provisions the activity thread for a project. This is the
// only surface allowed to create threads; event routing can only append to
// threads that already exist.
func (h *DASHandler) CreateThread(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	th, err := h.threads.CreateThread(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, thread.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "thread already exists"})
			return
		}
		slog.ErrorContext(ctx, "failed to create project thread",
			"project_id", req.ProjectID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create thread"})
		return
	}

	c.JSON(http.StatusCreated, dto.ThreadResponse{
		ThreadID:  th.ID,
		ProjectID: th.ProjectID,
		CreatedAt: th.CreatedAt,
	})
}
