package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ammar1510/leasehub/internal/logger"
	"github.com/ammar1510/leasehub/internal/models"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token carries neither id nor user_id")
	log               = logger.New("auth")
)

// Claims covers both token shapes in circulation: current tokens carry
// "id", tokens issued by the first release carry "user_id".
type Claims struct {
	ID     *int64 `json:"id,omitempty"`
	UserID *int64 `json:"user_id,omitempty"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the normalized caller derived from a verified token
type Identity struct {
	ID   int64
	Role string
}

// Identity resolves the caller id, preferring "id" over "user_id"
func (c *Claims) Identity() (Identity, error) {
	switch {
	case c.ID != nil && *c.ID > 0:
		return Identity{ID: *c.ID, Role: c.Role}, nil
	case c.UserID != nil && *c.UserID > 0:
		return Identity{ID: *c.UserID, Role: c.Role}, nil
	default:
		return Identity{}, ErrMissingSubject
	}
}

// TokenService signs and verifies HS256 tokens with one secret
type TokenService struct {
	key []byte
	ttl time.Duration
}

// NewTokenService creates a token service. A non-positive ttl means 24h.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{key: secret, ttl: ttl}
}

// TTL is how long issued tokens stay valid
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken creates a new token for a user
func (s *TokenService) GenerateToken(user *models.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("user cannot be nil")
	}
	if user.ID <= 0 {
		return "", time.Time{}, errors.New("user ID cannot be empty")
	}

	now := time.Now()
	expirationTime := now.Add(s.ttl)
	id := user.ID

	claims := &Claims{
		ID:    &id,
		Role:  user.Role,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expirationTime, nil
}

// ValidateToken verifies signature and expiry and returns the claims
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	if len(tokenString) > 10 {
		log.Debug("Validating token: %s...", tokenString[:10])
	} else if tokenString == "" {
		log.Warn("Validating empty token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		log.Debug("Token validation error: %v", err)
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
