package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/leasehub/internal/apperror"
	"github.com/ammar1510/leasehub/internal/auth"
	"github.com/ammar1510/leasehub/internal/database"
	"github.com/ammar1510/leasehub/internal/models"
)

// AuthHandler handles authentication routes
type AuthHandler struct {
	DB           database.Store
	Tokens       *auth.TokenService
	CookieSecure bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db database.Store, tokens *auth.TokenService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{DB: db, Tokens: tokens, CookieSecure: cookieSecure}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.UserRegistration
	if !bindJSON(c, &input) {
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, apperror.Internal("Failed to process password", err))
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleTenant
	}

	user, err := h.DB.CreateUser(c.Request.Context(), &models.User{
		Email:        normalizeEmail(input.Email),
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
	})
	switch {
	case errors.Is(err, database.ErrUserAlreadyExists):
		respondError(c, apperror.Conflict("User already exists"))
		return
	case errors.Is(err, database.ErrConstraint):
		respondError(c, apperror.Validation("User failed validation", err))
		return
	case err != nil:
		respondError(c, apperror.Internal("Failed to create user", err))
		return
	}

	log.Info("Registered user %d as %s", user.ID, user.Role)
	c.JSON(http.StatusCreated, user.ToResponse())
}

// Login checks credentials, sets the token cookie and returns the token
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.UserLogin
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.DB.GetUserByEmail(c.Request.Context(), normalizeEmail(input.Email))
	if errors.Is(err, database.ErrUserNotFound) {
		respondError(c, apperror.InvalidCredential("Invalid credentials", nil))
		return
	}
	if err != nil {
		respondError(c, apperror.Internal("Failed to retrieve user", err))
		return
	}

	if !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
		respondError(c, apperror.InvalidCredential("Invalid credentials", nil))
		return
	}

	token, expiry, err := h.Tokens.GenerateToken(user)
	if err != nil {
		respondError(c, apperror.Internal("Failed to generate token", err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.Tokens.TTL().Seconds()), "/", "", h.CookieSecure, true)

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"expiry": expiry,
		"user":   user.ToResponse(),
	})
}

// Logout clears the token cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe gets the current user profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	identity := currentIdentity(c)

	user, err := h.DB.GetUserByID(c.Request.Context(), identity.ID)
	if errors.Is(err, database.ErrUserNotFound) {
		respondError(c, apperror.NotFound("User", err))
		return
	}
	if err != nil {
		respondError(c, apperror.Internal("Failed to retrieve user", err))
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}
