package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

func EventsRouter(router *gin.RouterGroup, handler *handler.EventsHandler) {
	router.GET("/status", handler.Status)
	router.POST("/process", handler.Process)
}
