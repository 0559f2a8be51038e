package handlers

import (
	"net/http"

	"chatnotifier/internal/bridge"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every call response
type Response struct {
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  *bridge.Failure `json:"error,omitempty"`
}

// StatusFor maps a failure code to its HTTP status
func StatusFor(code bridge.Code) int {
	switch code {
	case bridge.CodeInvalidRequest:
		return http.StatusBadRequest
	case bridge.CodeNotFound:
		return http.StatusNotFound
	case bridge.CodeLifecycleMisuse:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes a failure envelope and aborts the request
func Fail(c *gin.Context, status int, code bridge.Code, message string) {
	c.AbortWithStatusJSON(status, Response{
		OK:    false,
		Error: &bridge.Failure{Code: code, Message: message},
	})
}
