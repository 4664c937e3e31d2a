package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammar1510/leasehub/internal/models"
)

// MemoryDB keeps everything in process. It enforces the same references
// and constraints as the postgres schema and is meant for local runs and
// handler tests.
type MemoryDB struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	properties map[int64]*models.Property
	messages   []*models.Message
	nextUser   int64
	nextProp   int64
	nextMsg    int64
	now        func() time.Time
}

var _ Store = (*MemoryDB)(nil)

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:      make(map[int64]*models.User),
		properties: make(map[int64]*models.Property),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source, for tests that need ties or
// a fixed order.
func (db *MemoryDB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func (db *MemoryDB) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	// exact match, like the UNIQUE constraint on users.email
	for _, u := range db.users {
		if u.Email == user.Email {
			return nil, ErrUserAlreadyExists
		}
	}
	if user.Email == "" || user.PasswordHash == "" || user.FirstName == "" {
		return nil, fmt.Errorf("%w: users", ErrConstraint)
	}

	db.nextUser++
	created := *user
	created.ID = db.nextUser
	created.CreatedAt = db.now()
	if created.Role == "" {
		created.Role = models.RoleTenant
	}
	db.users[created.ID] = &created

	out := created
	return &out, nil
}

func (db *MemoryDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, u := range db.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

func (db *MemoryDB) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	u, ok := db.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (db *MemoryDB) CreateProperty(_ context.Context, property *models.Property) (*models.Property, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[property.OwnerID]; !ok {
		return nil, fmt.Errorf("%w: properties_owner_id_fkey", ErrForeignKey)
	}
	if property.Name == "" || property.Price < 0 {
		return nil, fmt.Errorf("%w: properties", ErrConstraint)
	}

	db.nextProp++
	created := *property
	created.ID = db.nextProp
	created.CreatedAt = db.now()
	db.properties[created.ID] = &created

	out := created
	return &out, nil
}

func (db *MemoryDB) GetPropertyByID(_ context.Context, id int64) (*models.Property, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	p, ok := db.properties[id]
	if !ok {
		return nil, ErrPropertyNotFound
	}
	out := *p
	return &out, nil
}

func (db *MemoryDB) ListProperties(_ context.Context) ([]*models.Property, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	properties := make([]*models.Property, 0, len(db.properties))
	for _, p := range db.properties {
		out := *p
		properties = append(properties, &out)
	}
	sort.Slice(properties, func(i, j int) bool {
		if !properties[i].CreatedAt.Equal(properties[j].CreatedAt) {
			return properties[i].CreatedAt.After(properties[j].CreatedAt)
		}
		return properties[i].ID > properties[j].ID
	})
	return properties, nil
}

func (db *MemoryDB) CreateMessage(_ context.Context, message *models.Message) (*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[message.SenderID]; !ok {
		return nil, fmt.Errorf("%w: messages_sender_id_fkey", ErrForeignKey)
	}
	if _, ok := db.users[message.ReceiverID]; !ok {
		return nil, fmt.Errorf("%w: messages_receiver_id_fkey", ErrForeignKey)
	}
	if _, ok := db.properties[message.PropertyID]; !ok {
		return nil, fmt.Errorf("%w: messages_property_id_fkey", ErrForeignKey)
	}
	if strings.TrimSpace(message.Content) == "" {
		return nil, fmt.Errorf("%w: messages_content_check", ErrConstraint)
	}

	db.nextMsg++
	created := *message
	created.ID = db.nextMsg
	created.IsRead = false
	created.CreatedAt = db.now()
	if created.ConversationID == uuid.Nil {
		created.ConversationID = uuid.New()
	}
	db.messages = append(db.messages, &created)

	out := created
	return &out, nil
}

// sortedMessages copies the matching rows ordered by created_at then id.
// Caller holds at least the read lock.
func (db *MemoryDB) sortedMessages(match func(*models.Message) bool, newestFirst bool) []*models.Message {
	var out []*models.Message
	for _, m := range db.messages {
		if match(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if newestFirst {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if newestFirst {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	return out
}

func (db *MemoryDB) GetMessagesByUser(_ context.Context, userID int64) ([]*models.Message, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.sortedMessages(func(m *models.Message) bool {
		return m.HasParticipant(userID)
	}, true), nil
}

func (db *MemoryDB) FindParticipantMessage(_ context.Context, conversationID uuid.UUID, userID int64) (*models.Message, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	msgs := db.sortedMessages(func(m *models.Message) bool {
		return m.ConversationID == conversationID && m.HasParticipant(userID)
	}, false)
	if len(msgs) == 0 {
		return nil, ErrMessageNotFound
	}
	return msgs[0], nil
}

func (db *MemoryDB) GetThread(_ context.Context, conversationID uuid.UUID) ([]*models.MessageResponse, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	msgs := db.sortedMessages(func(m *models.Message) bool {
		return m.ConversationID == conversationID
	}, false)

	thread := make([]*models.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		sender, ok := db.users[m.SenderID]
		if !ok {
			// mirrors the inner join in the postgres query
			continue
		}
		thread = append(thread, &models.MessageResponse{Message: *m, Sender: sender.Summary()})
	}
	return thread, nil
}

func (db *MemoryDB) MarkConversationRead(_ context.Context, conversationID uuid.UUID, receiverID int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var changed int64
	for _, m := range db.messages {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (db *MemoryDB) CountUnreadInConversation(_ context.Context, conversationID uuid.UUID, receiverID int64) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	count := 0
	for _, m := range db.messages {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (db *MemoryDB) CountUnread(_ context.Context, receiverID int64) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	count := 0
	for _, m := range db.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (db *MemoryDB) Ping(context.Context) error {
	return nil
}

func (db *MemoryDB) Close() error {
	return nil
}
