package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

func WorkflowRouter(router *gin.RouterGroup, handler *handler.WorkflowHandler) {
	router.POST("/start", handler.Start)
}
