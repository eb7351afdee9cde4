package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/auth"
	"github.com/clipforge/clipforge/internal/common"
)

const SessionIDKey = "session_id"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// SessionRequired resolves the session id from the bearer token.
func SessionRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			common.Fail(c, http.StatusUnauthorized, 40101, "session token required")
			c.Abort()
			return
		}
		sid, err := auth.ParseSessionToken(token, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid session token")
			c.Abort()
			return
		}
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}
