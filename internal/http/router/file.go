package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

func FileRouter(router *gin.RouterGroup, handler *handler.FileHandler) {
	router.POST("/upload", handler.Upload)
	router.DELETE("/:file_id", handler.Delete)
}
