package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/leasehub/internal/auth"
	"github.com/ammar1510/leasehub/internal/database"
	"github.com/ammar1510/leasehub/internal/messaging"
	"github.com/ammar1510/leasehub/internal/models"
)

// RegisterRoutes mounts the auth, property and message APIs plus /health
func RegisterRoutes(router gin.IRouter, db database.Store, tokens *auth.TokenService, cookieSecure bool) {
	authHandler := NewAuthHandler(db, tokens, cookieSecure)
	propertyHandler := NewPropertyHandler(db)
	messageHandler := NewMessageHandler(messaging.NewService(db))
	requireAuth := AuthMiddleware(tokens)

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/logout", authHandler.Logout)
	router.GET("/api/properties", propertyHandler.ListProperties)
	router.GET("/api/properties/:id", propertyHandler.GetProperty)

	router.GET("/api/auth/me", requireAuth, authHandler.GetMe)
	router.POST("/api/properties", requireAuth,
		RequireRole(models.RoleOwner, models.RoleBroker, models.RoleAdmin),
		propertyHandler.CreateProperty)

	messages := router.Group("/api/messages")
	messages.Use(requireAuth)
	{
		messages.GET("/conversations", messageHandler.GetConversations)
		messages.GET("/unread-count", messageHandler.GetUnreadCount)
		messages.GET("/:conversationId", messageHandler.GetConversation)
		messages.POST("", messageHandler.SendMessage)
		messages.POST("/start", messageHandler.StartConversation)
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Error("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
