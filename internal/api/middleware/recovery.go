package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"chatnotifier/internal/api/handlers"
	"chatnotifier/internal/bridge"

	"github.com/gin-gonic/gin"
)

// Recovery recovers from panics in the transport and answers with a failure envelope
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					"component", "api",
					"request_id", c.GetString(RequestIDKey),
					"error", err,
					"path", c.Request.URL.Path,
				)

				handlers.Fail(c, http.StatusInternalServerError, bridge.CodeInvocationFailure,
					fmt.Sprintf("internal server error: %v", err))
			}
		}()
		c.Next()
	}
}
