package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ammar1510/leasehub/internal/models"
)

// MockStore implements database.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	args := m.Called(ctx, property)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockStore) GetPropertyByID(ctx context.Context, id int64) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockStore) ListProperties(ctx context.Context) ([]*models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockStore) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStore) GetMessagesByUser(ctx context.Context, userID int64) ([]*models.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockStore) FindParticipantMessage(ctx context.Context, conversationID uuid.UUID, userID int64) (*models.Message, error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStore) GetThread(ctx context.Context, conversationID uuid.UUID) ([]*models.MessageResponse, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MessageResponse), args.Error(1)
}

func (m *MockStore) MarkConversationRead(ctx context.Context, conversationID uuid.UUID, receiverID int64) (int64, error) {
	args := m.Called(ctx, conversationID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountUnreadInConversation(ctx context.Context, conversationID uuid.UUID, receiverID int64) (int, error) {
	args := m.Called(ctx, conversationID, receiverID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CountUnread(ctx context.Context, receiverID int64) (int, error) {
	args := m.Called(ctx, receiverID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}
