package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/middleware"
	"volunteer_platform/internal/realtime"
	"volunteer_platform/internal/service"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

const frameTimeout = 10 * time.Second

type WebSocketHandler struct {
	chatService service.ChatService
	hub         *realtime.Hub
	upgrader    websocket.Upgrader
	log         logger.Logger
}

func NewWebSocketHandler(chatService service.ChatService, hub *realtime.Hub, allowedOrigin string, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		chatService: chatService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigin, origin)
			},
		},
		log: log,
	}
}

type sendFrame struct {
	ReceiverID int64  `json:"receiver_id"`
	Text       string `json:"text"`
}

type readFrame struct {
	PeerID int64 `json:"peer_id"`
}

// Serve upgrades an authenticated request and runs the connection until the client leaves.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade connection", "error", err, "user_id", principal.UserID)
		return
	}

	conn := realtime.NewConnection(principal.UserID, principal.Role, ws)
	conn.Start()

	registry := h.hub.Registry()
	registry.Join(conn)
	h.log.Info("Live connection opened", "user_id", principal.UserID, "connection_id", conn.ID)

	defer func() {
		registry.Leave(conn)
		conn.Close(websocket.CloseNormalClosure, "")
		h.log.Info("Live connection closed", "user_id", principal.UserID, "connection_id", conn.ID)
	}()

	h.reply(conn, domain.EventConnected, gin.H{"user_id": principal.UserID})

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	if err := h.chatService.Connect(ctx, principal.UserID); err != nil {
		h.log.Warn("Connect side effects failed", "error", err, "user_id", principal.UserID)
	}
	cancel()

	err = conn.ReadLoop(func(data []byte) {
		h.handleFrame(conn, principal, data)
	})
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.log.Debug("Live connection dropped", "error", err, "user_id", principal.UserID)
	}
}

func (h *WebSocketHandler) handleFrame(conn *realtime.Connection, principal domain.Principal, data []byte) {
	var event realtime.Event
	if err := json.Unmarshal(data, &event); err != nil {
		h.replyError(conn, apperrors.ErrBadRequest, "malformed frame")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	switch event.Type {
	case domain.EventMessageSend:
		var frame sendFrame
		if err := json.Unmarshal(event.Payload, &frame); err != nil {
			h.replyError(conn, apperrors.ErrInvalidMessage, "malformed message:send payload")
			return
		}
		if _, err := h.chatService.SendMessage(ctx, principal, frame.ReceiverID, frame.Text); err != nil {
			h.replyError(conn, err, "")
		}

	case domain.EventConversationRead:
		var frame readFrame
		if err := json.Unmarshal(event.Payload, &frame); err != nil {
			h.log.Debug("Dropped malformed conversation:read", "error", err, "user_id", principal.UserID)
			return
		}
		_, err := h.chatService.MarkConversationRead(ctx, principal.UserID, frame.PeerID)
		if err != nil && !errors.Is(err, apperrors.ErrInvalidPeer) {
			h.replyError(conn, err, "")
		}

	default:
		h.replyError(conn, apperrors.ErrBadRequest, "unknown event type "+event.Type)
	}
}

func (h *WebSocketHandler) reply(conn *realtime.Connection, eventType string, payload any) {
	data, err := realtime.NewEvent(eventType, payload)
	if err != nil {
		h.log.Error("Failed to encode event", "error", err, "type", eventType)
		return
	}
	if err := conn.Send(data); err != nil {
		h.log.Debug("Dropped event for closed connection", "error", err, "type", eventType, "connection_id", conn.ID)
	}
}

// replyError answers the originating connection only. Internal failures carry no detail.
func (h *WebSocketHandler) replyError(conn *realtime.Connection, err error, message string) {
	code := apperrors.Code(err)
	if message == "" {
		message = err.Error()
	}
	if code == "internal_error" {
		h.log.Error("Live request failed", "error", err, "user_id", conn.UserID)
		message = apperrors.ErrInternalServer.Error()
	}
	h.reply(conn, domain.EventMessageError, domain.ErrorEvent{Code: code, Message: message})
}
