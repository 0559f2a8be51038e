package middleware

import (
	"log/slog"
	"time"

	"chatnotifier/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// Logging logs one line per HTTP request. Bridge calls carry their call id and
// method; health probes are logged at debug level.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case c.FullPath() == "/health" && status < 400:
			level = slog.LevelDebug
		}

		attrs := []any{
			"component", "api",
			"request_id", c.GetString(RequestIDKey),
			"http_method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if callID := c.GetString(handlers.CallIDKey); callID != "" {
			attrs = append(attrs, "call_id", callID, "call_method", c.GetString(handlers.CallMethodKey))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			attrs = append(attrs, "error", errs.String())
		}

		logger.Log(c.Request.Context(), level, "HTTP request", attrs...)
	}
}
