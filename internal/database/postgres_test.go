package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ammar1510/leasehub/internal/models"
)

// testDB stays nil when no container runtime is available; every test
// then skips instead of failing.
var testDB *PostgresDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, terminate, err := startPostgres(ctx)
	if err != nil {
		log.Printf("postgres container unavailable, store tests will be skipped: %v", err)
	} else {
		testDB, err = NewPostgresDB(ctx, connStr)
		if err == nil {
			err = testDB.Migrate(ctx)
		}
		if err != nil {
			log.Printf("failed to prepare test database: %v", err)
			testDB = nil
		}
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

// startPostgres runs a throwaway postgres container. Some container
// runtimes panic when no Docker host can be found, so that is recovered
// into an error too.
func startPostgres(ctx context.Context) (connStr string, terminate func(), err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting container: %v", r)
		}
	}()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("leasehub_test"),
		postgres.WithUsername("leasehub"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", nil, err
	}

	terminate = func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}

	connStr, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, err
	}

	return connStr, terminate, nil
}

func setupTestDB(t *testing.T) *PostgresDB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres container not available")
	}

	_, err := testDB.ExecContext(context.Background(),
		"TRUNCATE messages, properties, users RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return testDB
}

func createUser(t *testing.T, db *PostgresDB, email, role string) *models.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), &models.User{
		Email:        email,
		PasswordHash: "hashedpassword123",
		FirstName:    "Test",
		LastName:     role,
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

func createProperty(t *testing.T, db *PostgresDB, ownerID int64) *models.Property {
	t.Helper()
	property, err := db.CreateProperty(context.Background(), &models.Property{
		OwnerID: ownerID,
		Name:    "Sunny two-bedroom",
		Price:   1250.50,
		City:    "Lisbon",
	})
	require.NoError(t, err)
	return property
}

// insertAt writes a message with an explicit timestamp so ordering can be
// pinned down.
func insertAt(t *testing.T, db *PostgresDB, conv uuid.UUID, from, to, property int64, content string, at time.Time) int64 {
	t.Helper()
	var id int64
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, property_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING message_id`,
		conv, from, to, property, content, at,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createUser(t, db, "tenant@example.com", models.RoleTenant)
	assert.Positive(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	_, err := db.CreateUser(ctx, &models.User{
		Email:        "tenant@example.com",
		PasswordHash: "other",
		FirstName:    "Dup",
		Role:         models.RoleTenant,
	})
	assert.True(t, errors.Is(err, ErrUserAlreadyExists))

	byEmail, err := db.GetUserByEmail(ctx, "tenant@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hashedpassword123", byEmail.PasswordHash)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.Equal(t, ErrUserNotFound, err)

	_, err = db.GetUserByID(ctx, user.ID+100)
	assert.Equal(t, ErrUserNotFound, err)
}

func TestProperties(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com", models.RoleOwner)
	first := createProperty(t, db, owner.ID)
	second := createProperty(t, db, owner.ID)

	got, err := db.GetPropertyByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunny two-bedroom", got.Name)
	assert.InDelta(t, 1250.50, got.Price, 0.001)
	assert.Equal(t, "Lisbon", got.City)

	_, err = db.GetPropertyByID(ctx, 9999)
	assert.Equal(t, ErrPropertyNotFound, err)

	list, err := db.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = db.CreateProperty(ctx, &models.Property{OwnerID: 4242, Name: "Ghost", Price: 1})
	assert.True(t, errors.Is(err, ErrForeignKey))
}

func TestCreateMessage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tenant := createUser(t, db, "tenant@example.com", models.RoleTenant)
	owner := createUser(t, db, "owner@example.com", models.RoleOwner)
	property := createProperty(t, db, owner.ID)

	t.Run("mints a conversation id when none is given", func(t *testing.T) {
		first, err := db.CreateMessage(ctx, &models.Message{
			SenderID: tenant.ID, ReceiverID: owner.ID, PropertyID: property.ID, Content: "Is this available?",
		})
		require.NoError(t, err)
		second, err := db.CreateMessage(ctx, &models.Message{
			SenderID: tenant.ID, ReceiverID: owner.ID, PropertyID: property.ID, Content: "Hello again",
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, first.ConversationID)
		assert.NotEqual(t, first.ConversationID, second.ConversationID)
		assert.False(t, first.IsRead)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("reuses a given conversation id", func(t *testing.T) {
		conv := uuid.New()
		msg, err := db.CreateMessage(ctx, &models.Message{
			ConversationID: conv, SenderID: owner.ID, ReceiverID: tenant.ID, PropertyID: property.ID, Content: "Yes",
		})
		require.NoError(t, err)
		assert.Equal(t, conv, msg.ConversationID)
	})

	t.Run("dangling reference", func(t *testing.T) {
		_, err := db.CreateMessage(ctx, &models.Message{
			SenderID: tenant.ID, ReceiverID: 9999, PropertyID: property.ID, Content: "Hi",
		})
		assert.True(t, errors.Is(err, ErrForeignKey))
	})

	t.Run("blank content", func(t *testing.T) {
		_, err := db.CreateMessage(ctx, &models.Message{
			SenderID: tenant.ID, ReceiverID: owner.ID, PropertyID: property.ID, Content: "   ",
		})
		assert.True(t, errors.Is(err, ErrConstraint))
	})
}

func TestConversationQueries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tenant := createUser(t, db, "tenant@example.com", models.RoleTenant)
	owner := createUser(t, db, "owner@example.com", models.RoleOwner)
	stranger := createUser(t, db, "stranger@example.com", models.RoleTenant)
	property := createProperty(t, db, owner.ID)

	conv := uuid.New()
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	m1 := insertAt(t, db, conv, tenant.ID, owner.ID, property.ID, "first", base)
	m2 := insertAt(t, db, conv, owner.ID, tenant.ID, property.ID, "tie a", base.Add(time.Minute))
	m3 := insertAt(t, db, conv, owner.ID, tenant.ID, property.ID, "tie b", base.Add(time.Minute))

	other := uuid.New()
	insertAt(t, db, other, stranger.ID, owner.ID, property.ID, "unrelated", base.Add(2*time.Minute))

	t.Run("messages by user newest first", func(t *testing.T) {
		msgs, err := db.GetMessagesByUser(ctx, tenant.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, []int64{m3, m2, m1}, []int64{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	})

	t.Run("thread oldest first with sender", func(t *testing.T) {
		thread, err := db.GetThread(ctx, conv)
		require.NoError(t, err)
		require.Len(t, thread, 3)
		assert.Equal(t, []int64{m1, m2, m3}, []int64{thread[0].ID, thread[1].ID, thread[2].ID})
		require.NotNil(t, thread[0].Sender)
		assert.Equal(t, tenant.ID, thread[0].Sender.ID)
		assert.Equal(t, owner.ID, thread[1].Sender.ID)
	})

	t.Run("participant lookup", func(t *testing.T) {
		msg, err := db.FindParticipantMessage(ctx, conv, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, m1, msg.ID)

		_, err = db.FindParticipantMessage(ctx, conv, stranger.ID)
		assert.Equal(t, ErrMessageNotFound, err)

		_, err = db.FindParticipantMessage(ctx, uuid.New(), tenant.ID)
		assert.Equal(t, ErrMessageNotFound, err)
	})

	t.Run("unread counts and mark read", func(t *testing.T) {
		n, err := db.CountUnreadInConversation(ctx, conv, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		total, err := db.CountUnread(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		changed, err := db.MarkConversationRead(ctx, conv, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), changed)

		changed, err = db.MarkConversationRead(ctx, conv, tenant.ID)
		require.NoError(t, err)
		assert.Zero(t, changed)

		n, err = db.CountUnreadInConversation(ctx, conv, tenant.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		// the owner's own unread message is untouched
		n, err = db.CountUnreadInConversation(ctx, conv, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
