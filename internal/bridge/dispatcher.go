package bridge

import (
	"context"
	"log/slog"
	"time"

	"chatnotifier/internal/idgen"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "chatnotifier/internal/bridge"

// Pending is the not-yet-resolved result of a dispatched call.
type Pending struct {
	id     string
	method string
	done   chan struct{}
	result Result
}

func newPending(method string) *Pending {
	return &Pending{
		id:     idgen.NewCall(),
		method: method,
		done:   make(chan struct{}),
	}
}

func (p *Pending) resolve(result Result) {
	p.result = result
	close(p.done)
}

// ID returns the call identifier used in logs and traces.
func (p *Pending) ID() string {
	return p.id
}

// Method returns the requested method name as sent by the caller.
func (p *Pending) Method() string {
	return p.method
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the result and true once resolved; before that it returns false.
func (p *Pending) Result() (Result, bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the call resolves or ctx ends. Giving up on the wait does not
// cancel the call itself; it keeps running to completion.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTracer sets the tracer used for per-call spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// WithRedactedParams hides the parameter summary of the given methods in logs and spans.
func WithRedactedParams(methods ...Method) Option {
	return func(d *Dispatcher) {
		for _, m := range methods {
			d.redacted[m] = true
		}
	}
}

// Dispatcher routes calls to the handlers of a registry. Calls are never serialized
// against each other: each one runs on its own goroutine.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	redacted map[Method]bool
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		registry: registry,
		logger:   logger.With("component", "bridge"),
		tracer:   otel.Tracer(tracerName),
		redacted: make(map[Method]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts a call and returns immediately. Invalid requests and unknown methods
// resolve at once without invoking anything.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Pending {
	pending := newPending(req.Method)
	logger := d.logger
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}

	if err := req.Validate(); err != nil {
		logger.Warn("Rejected call", "call_id", pending.id, "error", err)
		pending.resolve(failure(err))
		return pending
	}

	method, handler, err := d.registry.LookupName(req.Method)
	if err != nil {
		logger.Warn("Rejected call", "call_id", pending.id, "method", req.Method, "error", err)
		pending.resolve(failure(err))
		return pending
	}

	summary := req.Params.Summary()
	if d.redacted[method] {
		summary = "params: <redacted>"
	}
	logger.Info("Calling "+method.String()+" with "+summary,
		"call_id", pending.id,
		"method", method.String(),
		"params_kind", req.Params.Kind().String())

	go d.invoke(context.WithoutCancel(ctx), logger, pending, method, handler, req.Params, summary)
	return pending
}

// Call dispatches req and waits for its result.
func (d *Dispatcher) Call(ctx context.Context, req Request) (any, error) {
	result, err := d.Dispatch(ctx, req).Wait(ctx)
	if err != nil {
		return nil, err
	}
	return result.Value, result.Err()
}

func (d *Dispatcher) invoke(ctx context.Context, logger *slog.Logger, pending *Pending, method Method, handler Handler, params Params, summary string) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "bridge.call "+method.String(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("chatnotifier.call_id", pending.id),
			attribute.String("chatnotifier.method", method.String()),
			attribute.String("chatnotifier.params_kind", params.Kind().String()),
			attribute.String("chatnotifier.params", summary),
		))

	result := d.run(ctx, method, handler, params.Args())
	duration := time.Since(start)

	if result.Failure != nil {
		span.SetStatus(codes.Error, result.Failure.Message)
		span.SetAttributes(attribute.String("chatnotifier.failure_code", string(result.Failure.Code)))
		logger.Error("Call failed",
			"call_id", pending.id,
			"method", method.String(),
			"code", result.Failure.Code,
			"duration", duration,
			"error", result.Failure.Message)
	} else {
		span.SetStatus(codes.Ok, "")
		logger.Debug("Call completed",
			"call_id", pending.id,
			"method", method.String(),
			"duration", duration)
	}
	span.End()

	pending.resolve(result)
}

// run invokes the handler and turns both errors and panics into failures.
func (d *Dispatcher) run(ctx context.Context, method Method, handler Handler, args []any) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("Panic recovered", "method", method.String(), "error", recovered)
			result = panicFailure(method.String(), recovered)
		}
	}()

	value, err := handler(ctx, args)
	if err != nil {
		return failure(err)
	}
	return success(value)
}
