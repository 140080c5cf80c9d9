package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

const (
	// AuthUserKey is the context key for the authenticated user record.
	AuthUserKey = "auth_user"
	// AuthTokenKey is the context key for the presented bearer token record.
	AuthTokenKey = "auth_token"
)

// Unauthenticated is the JSON body for every 401. It never leaks whether the
// token was absent, malformed, or revoked.
var unauthenticatedBody = gin.H{"message": "Unauthenticated."}

// RequireAuth resolves the bearer token and attaches the user to the context.
func RequireAuth(authService *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthenticatedBody)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthenticatedBody)
			return
		}

		rawToken := strings.TrimSpace(parts[1])
		if rawToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthenticatedBody)
			return
		}

		user, token, err := authService.Authenticate(c.Request.Context(), rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthenticatedBody)
			return
		}

		c.Set(AuthUserKey, user)
		c.Set(AuthTokenKey, token)
		c.Set(UserIDKey, user.ID)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = user.ID
		}

		c.Next()
	}
}

// GetAuthenticatedUser retrieves the user attached by RequireAuth.
func GetAuthenticatedUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(AuthUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// GetAuthenticatedToken retrieves the bearer token record attached by RequireAuth.
func GetAuthenticatedToken(c *gin.Context) (*domain.AuthToken, bool) {
	value, exists := c.Get(AuthTokenKey)
	if !exists {
		return nil, false
	}
	token, ok := value.(*domain.AuthToken)
	return token, ok
}

// GetAuthenticatedUserID retrieves the user ID from context (helper for handlers)
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}

	if id, ok := userID.(string); ok {
		return id, true
	}

	return "", false
}
