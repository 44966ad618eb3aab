package router

import (
	"github.com/gin-gonic/gin"

	"chatsync.app/bridge/internal/http/handler"
)

func HookRouter(router *gin.RouterGroup, handler *handler.HookHandler) {
	router.POST("", handler.Create)
	router.GET("", handler.List)
	router.GET("/:id", handler.Get)
	router.PATCH("/:id/settings", handler.UpdateSettings)
	router.POST("/:id/setup", handler.Setup)
}
