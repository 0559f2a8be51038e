package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"chatnotifier/internal/bridge"

	"github.com/gin-gonic/gin"
)

// Context keys set by the call handler for the request logger
const (
	CallIDKey     = "call_id"
	CallMethodKey = "call_method"
)

// Dispatcher starts bridge calls
type Dispatcher interface {
	Dispatch(ctx context.Context, req bridge.Request) *bridge.Pending
}

// CallHandler exposes the dispatcher as the only reachable operation
type CallHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewCallHandler creates a new call handler
func NewCallHandler(dispatcher Dispatcher, logger *slog.Logger) *CallHandler {
	return &CallHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Call dispatches one request and answers with its result
// POST /v1/call
func (h *CallHandler) Call(c *gin.Context) {
	var req bridge.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, bridge.CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	pending := h.dispatcher.Dispatch(c.Request.Context(), req)
	c.Set(CallIDKey, pending.ID())
	c.Set(CallMethodKey, req.Method)

	result, err := pending.Wait(c.Request.Context())
	if err != nil {
		// Caller went away; the call itself keeps running
		h.logger.Warn("Call abandoned by client",
			"component", "api",
			"call_id", pending.ID(),
			"method", req.Method,
			"error", err,
		)
		return
	}

	if !result.OK() {
		c.JSON(StatusFor(result.Failure.Code), Response{OK: false, Error: result.Failure})
		return
	}

	c.JSON(http.StatusOK, Response{OK: true, Result: result.Value})
}
