package handler

import (
	"github.com/gin-gonic/gin"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/realtime"
	"volunteer_platform/internal/service"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	User      *UserHandler
	Chat      *ChatHandler
	Stats     *StatsHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, hub *realtime.Hub, checks map[string]HealthCheck, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(checks, hub),
		Auth:      NewAuthHandler(services.Auth, log),
		User:      NewUserHandler(services.User, log),
		Chat:      NewChatHandler(services.Chat, log),
		Stats:     NewStatsHandler(services.Stats, log),
		WebSocket: NewWebSocketHandler(services.Chat, hub, cfg.CORS.AllowedOrigin, log),
	}
}

// respondError writes err with the status of the sentinel it wraps. Server-side failures are logged
// and replaced with a generic message.
func respondError(c *gin.Context, log logger.Logger, err error) {
	status := apperrors.HTTPStatusFromError(err)
	message := err.Error()
	if status >= 500 {
		log.Error("Request failed", "error", err, "path", c.FullPath())
		message = apperrors.ErrInternalServer.Error()
	}
	c.JSON(status, gin.H{"error": message})
}
