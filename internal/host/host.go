package host

import (
	"context"
	"fmt"
	"log/slog"

	"chatnotifier/internal/bridge"
)

// Caller runs a bridge request to completion.
type Caller interface {
	Call(ctx context.Context, req bridge.Request) (any, error)
}

// Host drives the subsystem through the bridge the same way the front-end does.
type Host struct {
	caller Caller
	logger *slog.Logger
}

// New creates a host on top of caller.
func New(caller Caller, logger *slog.Logger) *Host {
	return &Host{
		caller: caller,
		logger: logger.With("component", "host"),
	}
}

// Start initializes the subsystem in workDir unless it already is.
func (h *Host) Start(ctx context.Context, workDir string) error {
	initialized, err := h.initialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		h.logger.Info("Subsystem already initialized")
		return nil
	}

	if err := h.call(ctx, bridge.MethodPrinter, "ChatNotifier initializing with cwd.. "+workDir); err != nil {
		return err
	}
	if err := h.call(ctx, bridge.MethodInitialize, workDir); err != nil {
		return err
	}
	return h.call(ctx, bridge.MethodPrinter, "ChatNotifier initialized")
}

// Stop cleans the subsystem up if it is initialized.
func (h *Host) Stop(ctx context.Context) error {
	initialized, err := h.initialized(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return nil
	}
	return h.call(ctx, bridge.MethodCleanup)
}

func (h *Host) initialized(ctx context.Context) (bool, error) {
	v, err := h.caller.Call(ctx, bridge.Request{Method: bridge.MethodInitialized.String()})
	if err != nil {
		return false, fmt.Errorf("query %s: %w", bridge.MethodInitialized, err)
	}
	initialized, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("query %s: unexpected result %T", bridge.MethodInitialized, v)
	}
	return initialized, nil
}

func (h *Host) call(ctx context.Context, method bridge.Method, args ...any) error {
	req := bridge.Request{Method: method.String(), Params: bridge.NoParams()}
	if len(args) > 0 {
		req.Params = bridge.ListParams(args...)
	}
	if _, err := h.caller.Call(ctx, req); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
