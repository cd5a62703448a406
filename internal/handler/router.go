package handler

import (
	"github.com/gin-gonic/gin"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/middleware"
	"volunteer_platform/pkg/logger"
)

func NewRouter(
	handlers *Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigin))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.Health.Check)
	router.GET("/ready", handlers.Health.Ready)

	// the live channel
	router.GET("/ws", authMiddleware.RequireSocketAuth(), handlers.WebSocket.Serve)

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("/auth")
		{
			public.POST("/register", rateLimitMiddleware.Limit(), handlers.Auth.Register)
			public.POST("/login", rateLimitMiddleware.Limit(), handlers.Auth.Login)
			public.POST("/refresh", rateLimitMiddleware.Limit(), handlers.Auth.RefreshToken)
			public.POST("/logout", handlers.Auth.Logout)
		}

		protected := v1.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			users := protected.Group("/users")
			{
				users.GET("/me", handlers.User.GetMe)
				users.PATCH("/me", handlers.User.UpdateMe)
				users.GET("/:id", handlers.User.GetIdentity)
			}

			messages := protected.Group("/messages")
			{
				messages.POST("", handlers.Chat.SendMessage)
				messages.GET("/unread-count", handlers.Chat.UnreadCount)
				messages.GET("/search", handlers.Chat.SearchMessages)
				messages.DELETE("/:messageId", handlers.Chat.DeleteMessage)
			}

			conversations := protected.Group("/conversations")
			{
				conversations.GET("", handlers.Chat.ListConversations)
				conversations.GET("/:peerId/messages", handlers.Chat.GetMessages)
				conversations.POST("/:peerId/read", handlers.Chat.MarkRead)
				conversations.DELETE("/:peerId", handlers.Chat.DeleteConversation)
			}

			protected.GET("/stats/me", handlers.Stats.GetMyStats)

			admin := protected.Group("/admin")
			admin.Use(authMiddleware.RequireRole(domain.RoleAdmin))
			{
				admin.GET("/stats", handlers.Stats.GetPlatformStats)
			}
		}
	}

	return router
}
