package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/dto"
	"odras.app/odras/internal/http/middleware"
	"odras.app/odras/internal/store"
)

type ProjectHandler struct {
	projects store.ProjectStore
}

func NewProjectHandler(projects store.ProjectStore) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := &store.Project{
		Name:        req.Name,
		Description: req.Description,
	}
	if actor, ok := middleware.ActorFrom(ctx); ok {
		project.CreatedBy = actor.UserID
	}

	created, err := h.projects.Create(ctx, project)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create project", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, projectResponse(created))
}

func (h *ProjectHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := h.projects.GetByID(ctx, c.Param("project_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load project", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load project"})
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := &store.Project{
		ID:          c.Param("project_id"),
		Name:        req.Name,
		Description: req.Description,
	}

	updated, err := h.projects.Update(ctx, project)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to update project", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update project"})
		return
	}

	c.JSON(http.StatusOK, projectResponse(updated))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.projects.Delete(ctx, c.Param("project_id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete project", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete project"})
		return
	}

	c.Status(http.StatusNoContent)
}

func projectResponse(p *store.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ProjectID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
