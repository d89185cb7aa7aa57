package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/dto"
	"odras.app/odras/internal/pipeline"
)

const defaultProcessBatch = 50

// EventsHandler exposes the pipeline's administrative surface.
type EventsHandler struct {
	pipeline *pipeline.Pipeline
}

func NewEventsHandler(p *pipeline.Pipeline) *EventsHandler {
	return &EventsHandler{pipeline: p}
}

func (h *EventsHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Status(c.Request.Context()))
}

// Process drains a bounded batch outside the worker's own cycle, for
// operational recovery when the worker is stopped or behind.
func (h *EventsHandler) Process(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ProcessEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxEvents <= 0 {
		req.MaxEvents = defaultProcessBatch
	}

	processed, err := h.pipeline.ProcessBatch(ctx, req.MaxEvents)
	if err != nil {
		slog.ErrorContext(ctx, "manual event processing failed",
			"processed", processed, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ProcessEventsResponse{Processed: processed})
}
