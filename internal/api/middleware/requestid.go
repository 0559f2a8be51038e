package middleware

import (
	"chatnotifier/internal/bridge"
	"chatnotifier/internal/idgen"

	"github.com/gin-gonic/gin"
)

const RequestIDKey = "X-Request-ID"

// RequestID injects a unique request ID into each request. The ID also travels in the
// request context so dispatched calls can be correlated with the HTTP request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDKey)
		if requestID == "" {
			requestID = idgen.New()
		}
		c.Header(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)
		c.Request = c.Request.WithContext(bridge.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
