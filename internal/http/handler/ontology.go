package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/dto"
)

// OntologyHandler fronts the external ontology workbench. The service only
// acknowledges the mutation; the workbench owns the actual ontology state.
type OntologyHandler struct{}

func NewOntologyHandler() *OntologyHandler {
	return &OntologyHandler{}
}

func (h *OntologyHandler) Create(c *gin.Context) {
	var req dto.OntologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.OntologyResponse{
		OntologyName: req.OntologyName,
		Status:       "created",
	})
}

func (h *OntologyHandler) Update(c *gin.Context) {
	var req dto.OntologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.OntologyResponse{
		OntologyName: req.OntologyName,
		Status:       "modified",
	})
}

func (h *OntologyHandler) CreateClass(c *gin.Context) {
	var req dto.OntologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ClassName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class_name is required"})
		return
	}

	c.JSON(http.StatusCreated, dto.OntologyResponse{
		OntologyName: req.OntologyName,
		ClassName:    req.ClassName,
		Status:       "created",
	})
}
