package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/middleware"
	"volunteer_platform/internal/service"
	"volunteer_platform/pkg/logger"
)

type ChatHandler struct {
	chatService service.ChatService
	log         logger.Logger
}

func NewChatHandler(chatService service.ChatService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
	}
}

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), principal, req.ReceiverID, req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	total, err := h.chatService.UnreadCount(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, domain.UnreadCountEvent{Total: total})
}

func (h *ChatHandler) SearchMessages(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	messages, err := h.chatService.SearchMessages(c.Request.Context(), principal.UserID, c.Query("q"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	messageID, err := strconv.ParseInt(c.Param("messageId"), 10, 64)
	if err != nil || messageID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	if err := h.chatService.DeleteMessage(c.Request.Context(), principal, messageID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	conversations, err := h.chatService.Conversations(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, conversations)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	peerID, ok := h.peerID(c)
	if !ok {
		return
	}

	beforeID, err := strconv.ParseInt(c.DefaultQuery("before", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before cursor"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.chatService.ListMessages(c.Request.Context(), principal.UserID, peerID, beforeID, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	peerID, ok := h.peerID(c)
	if !ok {
		return
	}

	ids, err := h.chatService.MarkConversationRead(c.Request.Context(), principal.UserID, peerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message_ids": ids})
}

func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	peerID, ok := h.peerID(c)
	if !ok {
		return
	}

	deleted, err := h.chatService.DeleteConversation(c.Request.Context(), principal, peerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *ChatHandler) principal(c *gin.Context) (domain.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
	}
	return principal, ok
}

func (h *ChatHandler) peerID(c *gin.Context) (int64, bool) {
	peerID, err := strconv.ParseInt(c.Param("peerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer ID"})
		return 0, false
	}
	return peerID, true
}
