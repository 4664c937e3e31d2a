package auth

import (
	"net/http"
	"strings"

	"github.com/ammar1510/leasehub/internal/apperror"
)

// CookieName is the cookie login sets the token in
const CookieName = "token"

// Resolve extracts the caller from the token cookie or, failing that, the
// Authorization header. It never touches the store.
func (s *TokenService) Resolve(r *http.Request) (Identity, error) {
	tokenString, present := credentialFrom(r)
	if !present {
		return Identity{}, apperror.Unauthenticated("Authentication required")
	}
	if tokenString == "" {
		return Identity{}, apperror.InvalidCredential("Invalid authorization format", ErrInvalidToken)
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return Identity{}, apperror.InvalidCredential("Invalid or expired token", err)
	}

	identity, err := claims.Identity()
	if err != nil {
		return Identity{}, apperror.InvalidCredential("Invalid or expired token", err)
	}

	return identity, nil
}

// credentialFrom returns the raw token and whether any credential was
// supplied at all. A header without the Bearer scheme counts as supplied
// but yields an empty token.
func credentialFrom(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", true
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
}
