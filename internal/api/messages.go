package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ammar1510/leasehub/internal/apperror"
	"github.com/ammar1510/leasehub/internal/messaging"
	"github.com/ammar1510/leasehub/internal/models"
)

// MessageHandler handles message-related routes
type MessageHandler struct {
	Service *messaging.Service
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(service *messaging.Service) *MessageHandler {
	return &MessageHandler{Service: service}
}

// GetConversations returns the caller's inbox, one entry per conversation
func (h *MessageHandler) GetConversations(c *gin.Context) {
	caller := currentIdentity(c)

	summaries, err := h.Service.ListConversations(c.Request.Context(), caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// GetConversation returns one thread and marks it read for the caller
func (h *MessageHandler) GetConversation(c *gin.Context) {
	caller := currentIdentity(c)

	// an id that cannot name a conversation is treated like a foreign one
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		respondError(c, apperror.Forbidden("You are not a participant in this conversation"))
		return
	}

	thread, err := h.Service.GetThread(c.Request.Context(), caller.ID, conversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, thread)
}

// SendMessage replies within an existing conversation
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.Service.SendMessage(c.Request.Context(), currentIdentity(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// StartConversation opens a new conversation about a listing
func (h *MessageHandler) StartConversation(c *gin.Context) {
	var req models.StartConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.Service.StartConversation(c.Request.Context(), currentIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetUnreadCount returns how many messages wait for the caller
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.Service.UnreadCount(c.Request.Context(), currentIdentity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UnreadCountResponse{UnreadCount: count})
}
