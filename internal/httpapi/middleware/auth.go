package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reldane/chatrelay/internal/auth"
	"github.com/reldane/chatrelay/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired resolves the caller's identity from the bearer token. A
// missing or invalid token ends the request with 401 before any side effects.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}

		uid, err := auth.ParseJWT(strings.TrimSpace(token), secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}

		c.Set(UserIDKey, uid)
		c.Next()
	}
}
