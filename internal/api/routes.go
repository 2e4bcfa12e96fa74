package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/api/handlers"
	"github.com/IMPACT-HRIS/IM-Chat/internal/middleware"
	"github.com/IMPACT-HRIS/IM-Chat/internal/service"
	"github.com/IMPACT-HRIS/IM-Chat/pkg/config"
)

func SetupRoutes(r *gin.Engine, services *service.Services, authCfg config.AuthConfig, logger *zap.Logger) {
	wsHandler := handlers.NewWebSocketHandler(services.ChatService, logger.Named("ws"))
	adminHandler := handlers.NewAdminHandler(services.UserService, logger.Named("admin"))
	auth := middleware.AuthMiddleware(authCfg.JWTSecret, authCfg.Required)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "route not found",
		})
	})

	r.GET("/ws", auth, wsHandler.HandleWebSocket)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	authorized := api.Group("/")
	authorized.Use(auth)
	{
		authorized.GET("/ws", wsHandler.HandleWebSocket)
		authorized.GET("/admins", adminHandler.ListAdmins)
	}
}
