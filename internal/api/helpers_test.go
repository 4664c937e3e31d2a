package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/leasehub/internal/auth"
	"github.com/ammar1510/leasehub/internal/database"
	"github.com/ammar1510/leasehub/internal/models"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	router *gin.Engine
	db     *database.MemoryDB
	tokens *auth.TokenService
}

// setupTestRouter creates a router backed by an in-memory store
func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewMemoryDB()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	tokens := auth.NewTokenService(testSecret, time.Hour)
	router := gin.New()
	RegisterRoutes(router, db, tokens, false)

	return &testEnv{router: router, db: db, tokens: tokens}
}

// createUser stores a user directly and returns it with a bearer token
func (e *testEnv) createUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user, err := e.db.CreateUser(context.Background(), &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     role,
		Role:         role,
	})
	require.NoError(t, err)

	token, _, err := e.tokens.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createProperty(t *testing.T, ownerID int64) *models.Property {
	t.Helper()
	property, err := e.db.CreateProperty(context.Background(), &models.Property{
		OwnerID: ownerID,
		Name:    "Garden flat",
		Price:   950,
		City:    "Leeds",
	})
	require.NoError(t, err)
	return property
}

// request performs a request with an optional JSON body and bearer token
func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, w, &body)
	return body.Message
}
