package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

func ProjectRouter(router *gin.RouterGroup, handler *handler.ProjectHandler) {
	router.POST("", handler.Create)
	router.GET("/:project_id", handler.Get)
	router.PUT("/:project_id", handler.Update)
	router.DELETE("/:project_id", handler.Delete)
}
