package middleware

import (
	"crypto/subtle"
	"net/http"

	"chatnotifier/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared key between front-end and host
const APIKeyHeader = "X-ChatNotifier-Key"

// APIKey rejects requests that do not carry apiKey. An empty apiKey disables the check.
func APIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		providedKey := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
			handlers.Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			return
		}
		c.Next()
	}
}
