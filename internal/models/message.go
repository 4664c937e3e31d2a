package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidID is returned by ParseID for anything that is not a positive integer
var ErrInvalidID = errors.New("invalid identifier")

// Message is a directed message between two participants about one listing.
// Messages sharing a ConversationID form a conversation.
type Message struct {
	ID             int64     `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	PropertyID     int64     `json:"property_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageRequest replies into an existing conversation
type SendMessageRequest struct {
	ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
	ReceiverID     int64     `json:"receiver_id" binding:"required"`
	PropertyID     int64     `json:"property_id" binding:"required"`
	Content        string    `json:"content" binding:"required,min=1"`
}

// StartConversationRequest opens a new conversation. property_id may be
// sent as a number or as a numeric string.
type StartConversationRequest struct {
	ReceiverID int64           `json:"receiver_id" binding:"required"`
	PropertyID json.RawMessage `json:"property_id" binding:"required"`
	Content    string          `json:"content" binding:"required,min=1"`
}

// MessageResponse is a message annotated with its sender's public identity
type MessageResponse struct {
	Message
	Sender *UserSummary `json:"sender,omitempty"`
}

// ConversationSummary is one row of the inbox
type ConversationSummary struct {
	ConversationID  uuid.UUID        `json:"conversation_id"`
	PropertyID      int64            `json:"property_id"`
	Property        *PropertySummary `json:"property"`
	OtherUser       *UserSummary     `json:"other_user"`
	LastMessage     string           `json:"last_message"`
	LastMessageTime time.Time        `json:"last_message_time"`
	UnreadCount     int              `json:"unread_count"`
}

// Thread is the full history of one conversation
type Thread struct {
	Messages  []*MessageResponse `json:"messages"`
	Property  *PropertySummary   `json:"property"`
	OtherUser *UserSummary       `json:"other_user"`
}

// UnreadCountResponse keeps the camelCase key existing clients poll for
type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

// Counterpart returns the participant of m who is not userID
func (m *Message) Counterpart(userID int64) int64 {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// HasParticipant reports whether userID sent or received m
func (m *Message) HasParticipant(userID int64) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// ParseID accepts a JSON number or a JSON string holding a positive integer
func ParseID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, ErrInvalidID
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, ErrInvalidID
		}
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
