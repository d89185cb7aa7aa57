package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

func DASRouter(router *gin.RouterGroup, handler *handler.DASHandler) {
	router.POST("/ask", handler.Ask)
	router.POST("/threads", handler.CreateThread)
}
