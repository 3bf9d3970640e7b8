package auth

import (
	"net/http"
	"strings"

	"trolley-backend/internal/db"

	"github.com/gin-gonic/gin"
)

const userContextKey = "trolley:user"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	split := strings.SplitN(header, " ", 2)
	if len(split) != 2 || !strings.EqualFold(split[0], "Bearer") {
		return ""
	}
	return split[1]
}

// UserFromContext returns the authenticated user set by one of the
// middlewares below, if any.
func UserFromContext(c *gin.Context) (db.User, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return db.User{}, false
	}
	user, ok := value.(db.User)
	return user, ok
}

// OptionalUser attaches the user to the request context when a valid
// bearer token is present, and does nothing otherwise.
func (s Service) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		user, err := s.VerifyToken(c.Request.Context(), token)
		if err == nil && user.IsActive {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 unless a valid bearer token for an active
// account is presented.
func (s Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		user, err := s.VerifyToken(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user account is disabled"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequirePremium layers a subscription check on top of RequireAuth.
func (s Service) RequirePremium() gin.HandlerFunc {
	requireAuth := s.RequireAuth()
	return func(c *gin.Context) {
		requireAuth(c)
		if c.IsAborted() {
			return
		}
		user, _ := UserFromContext(c)
		if !IsPremium(user) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "premium subscription required"})
			return
		}
		c.Next()
	}
}

// RequireAdminKey guards admin endpoints with the X-Admin-Key header.
func RequireAdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("X-Admin-Key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			return
		}
		c.Next()
	}
}
