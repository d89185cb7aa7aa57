package router

import (
	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/http/handler"
)

func KnowledgeRouter(router *gin.RouterGroup, handler *handler.KnowledgeHandler) {
	router.POST("/assets", handler.CreateAsset)
	router.PUT("/assets/:asset_id", handler.UpdateAsset)
	router.POST("/assets/:asset_id/publish", handler.PublishAsset)
	router.POST("/search", handler.Search)
	router.POST("/query", handler.Query)
}
