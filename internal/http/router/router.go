package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

// Handlers groups the handler set wired by main.
type Handlers struct {
	Projects  *handler.ProjectHandler
	Ontology  *handler.OntologyHandler
	Files     *handler.FileHandler
	Knowledge *handler.KnowledgeHandler
	Workflows *handler.WorkflowHandler
	DAS       *handler.DASHandler
	Events    *handler.EventsHandler
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		ProjectRouter(api.Group("/projects"), h.Projects)
		OntologyRouter(api.Group("/ontology"), h.Ontology)
		FileRouter(api.Group("/files"), h.Files)
		KnowledgeRouter(api.Group("/knowledge"), h.Knowledge)
		WorkflowRouter(api.Group("/workflows"), h.Workflows)
		DASRouter(api.Group("/das"), h.DAS)
		EventsRouter(api.Group("/events"), h.Events)
	}
}
