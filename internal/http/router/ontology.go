package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

func OntologyRouter(router *gin.RouterGroup, handler *handler.OntologyHandler) {
	router.POST("", handler.Create)
	router.PUT("", handler.Update)
	router.POST("/classes", handler.CreateClass)
}
