package middleware

import (
	"net/http"
	"strings"

	"chatnotifier/internal/api/handlers"
	"chatnotifier/internal/bridge"

	"github.com/gin-gonic/gin"
)

// ContentType enforces JSON content-type for requests carrying a body
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut || c.Request.Method == http.MethodPatch {
			contentType := c.GetHeader("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				handlers.Fail(c, http.StatusUnsupportedMediaType, bridge.CodeInvalidRequest,
					"Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
