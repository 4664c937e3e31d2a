// Package messaging implements conversations between tenants and listing
// owners. A conversation is never stored: it is the set of messages that
// share a conversation_id, and everything about it (last message,
// counterpart, unread count) is derived from those rows.
package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ammar1510/leasehub/internal/apperror"
	"github.com/ammar1510/leasehub/internal/auth"
	"github.com/ammar1510/leasehub/internal/database"
	"github.com/ammar1510/leasehub/internal/logger"
	"github.com/ammar1510/leasehub/internal/models"
)

var log = logger.New("messaging")

// Service answers the inbox, thread, send and start operations
type Service struct {
	store database.Store
}

func NewService(store database.Store) *Service {
	return &Service{store: store}
}

// ListConversations returns one summary per conversation the caller is in,
// most recently active first. A conversation whose counterpart cannot be
// loaded is left out rather than failing the whole inbox.
func (s *Service) ListConversations(ctx context.Context, callerID int64) ([]*models.ConversationSummary, error) {
	messages, err := s.store.GetMessagesByUser(ctx, callerID)
	if err != nil {
		return nil, apperror.Internal("Failed to load conversations", err)
	}

	// messages are newest first, so the first row seen per conversation
	// is its latest message
	seen := make(map[uuid.UUID]struct{})
	var latest []*models.Message
	for _, msg := range messages {
		if _, ok := seen[msg.ConversationID]; ok {
			continue
		}
		seen[msg.ConversationID] = struct{}{}
		latest = append(latest, msg)
	}

	properties := make(map[int64]*models.PropertySummary)
	summaries := make([]*models.ConversationSummary, 0, len(latest))
	for _, msg := range latest {
		otherID := msg.Counterpart(callerID)
		other, err := s.store.GetUserByID(ctx, otherID)
		if err != nil {
			log.Warn("Dropping conversation %s: counterpart %d unavailable: %v", msg.ConversationID, otherID, err)
			continue
		}

		unread, err := s.store.CountUnreadInConversation(ctx, msg.ConversationID, callerID)
		if err != nil {
			return nil, apperror.Internal("Failed to count unread messages", err)
		}

		property, ok := properties[msg.PropertyID]
		if !ok {
			property, err = s.propertySummary(ctx, msg.PropertyID)
			if err != nil {
				return nil, err
			}
			properties[msg.PropertyID] = property
		}

		summaries = append(summaries, &models.ConversationSummary{
			ConversationID:  msg.ConversationID,
			PropertyID:      msg.PropertyID,
			Property:        property,
			OtherUser:       other.Summary(),
			LastMessage:     msg.Content,
			LastMessageTime: msg.CreatedAt,
			UnreadCount:     unread,
		})
	}

	return summaries, nil
}

// GetThread returns the conversation oldest first and marks everything
// addressed to the caller as read. Callers outside the conversation get
// Forbidden whether or not it exists.
func (s *Service) GetThread(ctx context.Context, callerID int64, conversationID uuid.UUID) (*models.Thread, error) {
	anchor, err := s.participantMessage(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.GetThread(ctx, conversationID)
	if err != nil {
		return nil, apperror.Internal("Failed to load messages", err)
	}

	marked, err := s.store.MarkConversationRead(ctx, conversationID, callerID)
	if err != nil {
		return nil, apperror.Internal("Failed to update read state", err)
	}
	if marked > 0 {
		log.Debug("User %d read %d messages in %s", callerID, marked, conversationID)
	}

	property, err := s.propertySummary(ctx, anchor.PropertyID)
	if err != nil {
		return nil, err
	}

	thread := &models.Thread{
		Messages: messages,
		Property: property,
	}

	other, err := s.store.GetUserByID(ctx, anchor.Counterpart(callerID))
	switch {
	case err == nil:
		thread.OtherUser = other.Summary()
	case errors.Is(err, database.ErrUserNotFound):
		log.Warn("Counterpart of %s missing for user %d", conversationID, callerID)
	default:
		return nil, apperror.Internal("Failed to load conversation participant", err)
	}

	return thread, nil
}

// SendMessage appends a reply to a conversation the caller already takes
// part in. receiver and property are stored as given.
func (s *Service) SendMessage(ctx context.Context, callerID int64, req models.SendMessageRequest) (*models.MessageResponse, error) {
	// outsiders get Forbidden whatever else is wrong with the request
	if _, err := s.participantMessage(ctx, req.ConversationID, callerID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Content) == "" {
		return nil, apperror.InvalidInput("Message content is required", nil)
	}
	if req.ReceiverID == callerID {
		return nil, apperror.InvalidInput("You cannot message yourself", nil)
	}

	created, err := s.store.CreateMessage(ctx, &models.Message{
		ConversationID: req.ConversationID,
		SenderID:       callerID,
		ReceiverID:     req.ReceiverID,
		PropertyID:     req.PropertyID,
		Content:        req.Content,
	})
	if err != nil {
		return nil, mapCreateError(err)
	}

	log.Info("User %d replied in conversation %s", callerID, created.ConversationID)
	return s.withSender(ctx, created), nil
}

// StartConversation opens a new conversation about a listing. Only tenants
// and admins may start one. Every call mints a new conversation, even for
// a receiver and listing the caller has already written about.
func (s *Service) StartConversation(ctx context.Context, caller auth.Identity, req models.StartConversationRequest) (*models.MessageResponse, error) {
	if caller.Role != models.RoleTenant && caller.Role != models.RoleAdmin {
		return nil, apperror.Forbidden("Only tenants can start a conversation")
	}

	propertyID, err := models.ParseID(req.PropertyID)
	if err != nil {
		return nil, apperror.InvalidInput("property_id must be an integer", err)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperror.InvalidInput("Message content is required", nil)
	}
	if req.ReceiverID == caller.ID {
		return nil, apperror.InvalidInput("You cannot message yourself", nil)
	}

	if _, err := s.store.GetPropertyByID(ctx, propertyID); err != nil {
		if errors.Is(err, database.ErrPropertyNotFound) {
			return nil, apperror.InvalidReference("Property does not exist", err)
		}
		return nil, apperror.Internal("Failed to load property", err)
	}

	created, err := s.store.CreateMessage(ctx, &models.Message{
		SenderID:   caller.ID,
		ReceiverID: req.ReceiverID,
		PropertyID: propertyID,
		Content:    req.Content,
	})
	if err != nil {
		return nil, mapCreateError(err)
	}

	log.Info("User %d started conversation %s about property %d", caller.ID, created.ConversationID, propertyID)
	return s.withSender(ctx, created), nil
}

// UnreadCount is the number of unread messages addressed to the caller
// across all conversations.
func (s *Service) UnreadCount(ctx context.Context, callerID int64) (int, error) {
	count, err := s.store.CountUnread(ctx, callerID)
	if err != nil {
		return 0, apperror.Internal("Failed to count unread messages", err)
	}
	return count, nil
}

func (s *Service) participantMessage(ctx context.Context, conversationID uuid.UUID, callerID int64) (*models.Message, error) {
	msg, err := s.store.FindParticipantMessage(ctx, conversationID, callerID)
	if errors.Is(err, database.ErrMessageNotFound) {
		return nil, apperror.Forbidden("You are not a participant in this conversation")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to check conversation access", err)
	}
	return msg, nil
}

// propertySummary returns nil for a listing that no longer exists
func (s *Service) propertySummary(ctx context.Context, propertyID int64) (*models.PropertySummary, error) {
	property, err := s.store.GetPropertyByID(ctx, propertyID)
	if errors.Is(err, database.ErrPropertyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal("Failed to load property", err)
	}
	return property.Summary(), nil
}

// withSender attaches the sender's public fields. The message is already
// stored, so a failed lookup only costs the annotation.
func (s *Service) withSender(ctx context.Context, msg *models.Message) *models.MessageResponse {
	resp := &models.MessageResponse{Message: *msg}

	sender, err := s.store.GetUserByID(ctx, msg.SenderID)
	if err != nil {
		log.Warn("Sender %d lookup failed after insert: %v", msg.SenderID, err)
		return resp
	}

	resp.Sender = sender.Summary()
	return resp
}

func mapCreateError(err error) error {
	switch {
	case errors.Is(err, database.ErrForeignKey):
		return apperror.InvalidReference("Receiver or property does not exist", err)
	case errors.Is(err, database.ErrConstraint):
		return apperror.Validation("Message failed validation", err)
	default:
		return apperror.Internal("Failed to save message", err)
	}
}

