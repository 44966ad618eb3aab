package router

import (
	"github.com/gin-gonic/gin"

	"chatsync.app/bridge/internal/http/handler"
	"chatsync.app/bridge/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		ingestHandler := handler.NewEventIngestHandler(services.EventIngest())
		EventRouter(v1.Group("/events"), ingestHandler)

		hookHandler := handler.NewHookHandler(services.Hooks(), services.Setup())
		HookRouter(v1.Group("/hooks"), hookHandler)
	}
}
