package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ammar1510/leasehub/internal/apperror"
	"github.com/ammar1510/leasehub/internal/auth"
)

const identityKey = "identity"

// AuthMiddleware resolves the caller from the token cookie or bearer header
// and stores the identity in the context
func AuthMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := tokens.Resolve(c.Request)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
// Must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		respondError(c, apperror.Forbidden("Insufficient permissions"))
	}
}

// currentIdentity returns the caller set by AuthMiddleware. Routes without
// the middleware get the zero Identity.
func currentIdentity(c *gin.Context) auth.Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return auth.Identity{}
	}
	identity, _ := value.(auth.Identity)
	return identity
}
