package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"herms/internal/auth"
)

const (
	UserIDKey    = "userID"
	SessionIDKey = "sessionID"

	SessionCookie = "herms_session"
)

// SessionAuth resolves the session cookie, if any, and stores the user id in
// the context. Requests without a valid session pass through untouched; a
// failing session store is logged and treated the same way.
func SessionAuth(sessions *auth.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrSessionNotFound) {
				log.Warn("failed to resolve session", zap.String("path", c.Request.URL.Path), zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(UserIDKey, sess.UserID)
		c.Set(SessionIDKey, sess.ID)
		c.Next()
	}
}

// RequireAuth rejects requests that SessionAuth did not authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
