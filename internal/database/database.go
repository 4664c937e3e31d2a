package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ammar1510/leasehub/internal/models"
)

// Store is everything the handlers and the messaging service need from
// persistence. PostgresDB is the only production implementation.
type Store interface {
	// User methods
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// Property methods
	CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error)
	GetPropertyByID(ctx context.Context, id int64) (*models.Property, error)
	ListProperties(ctx context.Context) ([]*models.Property, error)

	// Message methods
	CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error)
	GetMessagesByUser(ctx context.Context, userID int64) ([]*models.Message, error)
	FindParticipantMessage(ctx context.Context, conversationID uuid.UUID, userID int64) (*models.Message, error)
	GetThread(ctx context.Context, conversationID uuid.UUID) ([]*models.MessageResponse, error)
	MarkConversationRead(ctx context.Context, conversationID uuid.UUID, receiverID int64) (int64, error)
	CountUnreadInConversation(ctx context.Context, conversationID uuid.UUID, receiverID int64) (int, error)
	CountUnread(ctx context.Context, receiverID int64) (int, error)

	// Common methods
	Ping(ctx context.Context) error
	Close() error
}

type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgres"
	Memory     DatabaseType = "memory"
)

// NewDatabase opens the store selected by dbType. For postgres the schema
// is applied first when autoMigrate is set.
func NewDatabase(ctx context.Context, dbType DatabaseType, connStr string, autoMigrate bool) (Store, error) {
	switch dbType {
	case PostgreSQL:
		db, err := NewPostgresDB(ctx, connStr)
		if err != nil {
			return nil, err
		}
		if autoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}
		return db, nil
	case Memory:
		return NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
