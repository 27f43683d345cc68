package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the shopper's session id
const SessionHeader = "Session-Id"

// legacySessionHeader is accepted for clients that send the underscore form
const legacySessionHeader = "session_id"

const sessionContextKey = "session_id"

// Session rejects requests without a session id header
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			id = strings.TrimSpace(c.GetHeader(legacySessionHeader))
		}
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + SessionHeader + " header"})
			c.Abort()
			return
		}

		c.Set(sessionContextKey, id)
		c.Next()
	}
}

// SessionID returns the session id stored by Session
func SessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}
