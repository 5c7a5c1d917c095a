// internal/middleware/session.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/baraholka/backend/internal/utils"
)

const (
	sessionCookieName = "session_key"
	sessionCookieAge  = 60 * 60 * 24 * 365 // one year
)

// Session gives every client a stable session key via cookie. Anonymous view
// deduplication keys on (ip, session_key), so the key must survive across
// requests from the same browser.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(sessionCookieName)
		if err != nil || key == "" {
			key, err = utils.GenerateSessionKey()
			if err != nil {
				logrus.WithError(err).Error("Failed to generate session key")
				c.Next()
				return
			}
			c.SetCookie(sessionCookieName, key, sessionCookieAge, "/", "", false, true)
		}

		c.Set("session_key", key)
		c.Next()
	}
}

// GetSessionKey returns the session key established by Session, if any.
func GetSessionKey(c *gin.Context) string {
	if key, exists := c.Get("session_key"); exists {
		if s, ok := key.(string); ok {
			return s
		}
	}
	return ""
}
