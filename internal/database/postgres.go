package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pkg/errors"

	"github.com/ammar1510/leasehub/internal/models"
)

type PostgresDB struct {
	*sql.DB
}

var _ Store = (*PostgresDB)(nil)

func NewPostgresDB(ctx context.Context, connStr string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresDB{db}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `user_id, email, password_hash, first_name, last_name,
	COALESCE(avatar_url, ''), role, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.AvatarURL,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	err := db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, created_at`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(classify(err), "postgres.CreateUser")
	}

	return &created, nil
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postgres.GetUserByEmail")
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postgres.GetUserByID")
	}

	return user, nil
}

const propertyColumns = `property_id, owner_id, name, price, COALESCE(city, ''), created_at`

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Price, &p.City, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *PostgresDB) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	created := *property
	err := db.QueryRowContext(ctx, `
		INSERT INTO properties (owner_id, name, price, city)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING property_id, created_at`,
		property.OwnerID, property.Name, property.Price, property.City,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(classify(err), "postgres.CreateProperty")
	}

	return &created, nil
}

func (db *PostgresDB) GetPropertyByID(ctx context.Context, id int64) (*models.Property, error) {
	property, err := scanProperty(db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE property_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postgres.GetPropertyByID")
	}

	return property, nil
}

func (db *PostgresDB) ListProperties(ctx context.Context) ([]*models.Property, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties ORDER BY created_at DESC, property_id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "postgres.ListProperties")
	}
	defer rows.Close()

	properties := []*models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, errors.Wrap(err, "postgres.ListProperties.Scan")
		}
		properties = append(properties, p)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "postgres.ListProperties.Rows")
	}

	return properties, nil
}

const messageColumns = `message_id, conversation_id, sender_id, receiver_id, property_id,
	content, is_read, created_at`

func scanMessage(row rowScanner) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.PropertyID,
		&msg.Content,
		&msg.IsRead,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateMessage inserts a message. A zero ConversationID leaves the column
// to its default, which mints a fresh conversation.
func (db *PostgresDB) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	created := *message

	var row *sql.Row
	if message.ConversationID == uuid.Nil {
		row = db.QueryRowContext(ctx, `
			INSERT INTO messages (sender_id, receiver_id, property_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING message_id, conversation_id, is_read, created_at`,
			message.SenderID, message.ReceiverID, message.PropertyID, message.Content)
	} else {
		row = db.QueryRowContext(ctx, `
			INSERT INTO messages (conversation_id, sender_id, receiver_id, property_id, content)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING message_id, conversation_id, is_read, created_at`,
			message.ConversationID, message.SenderID, message.ReceiverID, message.PropertyID, message.Content)
	}

	if err := row.Scan(&created.ID, &created.ConversationID, &created.IsRead, &created.CreatedAt); err != nil {
		return nil, errors.Wrap(classify(err), "postgres.CreateMessage")
	}

	return &created, nil
}

// GetMessagesByUser returns every message the user sent or received,
// newest first. message_id breaks created_at ties.
func (db *PostgresDB) GetMessagesByUser(ctx context.Context, userID int64) ([]*models.Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, message_id DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "postgres.GetMessagesByUser")
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "postgres.GetMessagesByUser.Scan")
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "postgres.GetMessagesByUser.Rows")
	}

	return messages, nil
}

// FindParticipantMessage returns the oldest message of the conversation
// that userID took part in, or ErrMessageNotFound.
func (db *PostgresDB) FindParticipantMessage(ctx context.Context, conversationID uuid.UUID, userID int64) (*models.Message, error) {
	msg, err := scanMessage(db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1 AND (sender_id = $2 OR receiver_id = $2)
		ORDER BY created_at ASC, message_id ASC
		LIMIT 1`,
		conversationID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postgres.FindParticipantMessage")
	}

	return msg, nil
}

// GetThread returns the conversation oldest first, each message joined
// with its sender's public fields.
func (db *PostgresDB) GetThread(ctx context.Context, conversationID uuid.UUID) ([]*models.MessageResponse, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT m.message_id, m.conversation_id, m.sender_id, m.receiver_id, m.property_id,
		       m.content, m.is_read, m.created_at,
		       u.user_id, u.first_name, u.last_name, COALESCE(u.avatar_url, ''), u.role
		FROM messages m
		JOIN users u ON u.user_id = m.sender_id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC, m.message_id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "postgres.GetThread")
	}
	defer rows.Close()

	thread := []*models.MessageResponse{}
	for rows.Next() {
		var resp models.MessageResponse
		var sender models.UserSummary

		err := rows.Scan(
			&resp.ID, &resp.ConversationID, &resp.SenderID, &resp.ReceiverID, &resp.PropertyID,
			&resp.Content, &resp.IsRead, &resp.CreatedAt,
			&sender.ID, &sender.FirstName, &sender.LastName, &sender.AvatarURL, &sender.Role,
		)
		if err != nil {
			return nil, errors.Wrap(err, "postgres.GetThread.Scan")
		}

		resp.Sender = &sender
		thread = append(thread, &resp)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "postgres.GetThread.Rows")
	}

	return thread, nil
}

// MarkConversationRead flips every unread message addressed to receiverID
// in one statement and reports how many changed.
func (db *PostgresDB) MarkConversationRead(ctx context.Context, conversationID uuid.UUID, receiverID int64) (int64, error) {
	result, err := db.ExecContext(ctx, `
		UPDATE messages SET is_read = true
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_read = false`,
		conversationID, receiverID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "postgres.MarkConversationRead")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "postgres.MarkConversationRead.RowsAffected")
	}

	return rowsAffected, nil
}

func (db *PostgresDB) CountUnreadInConversation(ctx context.Context, conversationID uuid.UUID, receiverID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_read = false`,
		conversationID, receiverID,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "postgres.CountUnreadInConversation")
	}

	return count, nil
}

func (db *PostgresDB) CountUnread(ctx context.Context, receiverID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = false`,
		receiverID,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "postgres.CountUnread")
	}

	return count, nil
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func (db *PostgresDB) Close() error {
	return db.DB.Close()
}
