package router

import (
	"github.com/gin-gonic/gin"

	"chatsync.app/bridge/internal/http/handler"
)

func EventRouter(router *gin.RouterGroup, handler *handler.EventIngestHandler) {
	router.POST("/ingest", handler.Ingest)
}
