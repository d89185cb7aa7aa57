package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"odras.app/odras/common/id"
	"odras.app/odras/internal/http/dto"
)

// WorkflowHandler accepts workflow start requests and hands them to the
// external BPMN engine. Only the acknowledgement lives here.
type WorkflowHandler struct{}

func NewWorkflowHandler() *WorkflowHandler {
	return &WorkflowHandler{}
}

func (h *WorkflowHandler) Start(c *gin.Context) {
	var req dto.StartWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, dto.StartWorkflowResponse{
		WorkflowID:   fmt.Sprintf("wf_%d", id.New()),
		WorkflowName: req.WorkflowName,
		Status:       "started",
	})
}
