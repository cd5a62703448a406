package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"volunteer_platform/internal/realtime"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
	hub    *realtime.Hub
}

func NewHealthHandler(checks map[string]HealthCheck, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		hub:    hub,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "volunteer-platform-chat",
	})
}

// Ready pings every dependency and answers 503 if any of them fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(gin.H, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	body := gin.H{"checks": results}
	if h.hub != nil {
		body["online_users"] = h.hub.OnlineCount()
	}
	c.JSON(status, body)
}
