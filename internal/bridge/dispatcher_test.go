package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// spyHandler records every invocation it receives.
type spyHandler struct {
	mu    sync.Mutex
	calls [][]any
	value any
	err   error
}

func (s *spyHandler) handle(_ context.Context, args []any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, args)
	return s.value, s.err
}

func (s *spyHandler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *spyHandler) lastArgs() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, bindings map[Method]Handler, opts ...Option) *Dispatcher {
	t.Helper()
	registry, err := NewRegistry(bindings)
	require.NoError(t, err)
	return NewDispatcher(registry, testLogger(), opts...)
}

func waitResult(t *testing.T, p *Pending) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := p.Wait(ctx)
	require.NoError(t, err)
	return result
}

func TestDispatch_UnknownMethodInvokesNothing(t *testing.T) {
	spy := &spyHandler{}
	d := newTestDispatcher(t, map[Method]Handler{
		MethodPrinter: spy.handle,
		MethodCleanup: spy.handle,
	})

	for _, name := range []string{"launch_missiles", "initialize", "Printer", "printer "} {
		t.Run(name, func(t *testing.T) {
			pending := d.Dispatch(context.Background(), Request{Method: name, Params: ListParams("x")})

			// Unknown methods resolve before Dispatch returns
			result, ok := pending.Result()
			require.True(t, ok)
			require.NotNil(t, result.Failure)
			assert.Equal(t, CodeNotFound, result.Failure.Code)
			assert.Contains(t, result.Failure.Message, name)
			assert.ErrorIs(t, result.Err(), ErrMethodNotFound)
		})
	}

	assert.Equal(t, 0, spy.callCount())
}

func TestDispatch_EmptyMethodIsInvalidRequest(t *testing.T) {
	spy := &spyHandler{}
	d := newTestDispatcher(t, map[Method]Handler{MethodPrinter: spy.handle})

	result := waitResult(t, d.Dispatch(context.Background(), Request{}))
	require.NotNil(t, result.Failure)
	assert.Equal(t, CodeInvalidRequest, result.Failure.Code)
	assert.Equal(t, 0, spy.callCount())
}

func TestDispatch_NoParamsInvokesWithZeroArgs(t *testing.T) {
	spy := &spyHandler{value: true}
	d := newTestDispatcher(t, map[Method]Handler{MethodInitialized: spy.handle})

	result := waitResult(t, d.Dispatch(context.Background(), Request{Method: "initialized"}))

	require.True(t, result.OK())
	assert.Equal(t, true, result.Value)
	require.Equal(t, 1, spy.callCount())
	assert.Empty(t, spy.lastArgs())
}

func TestDispatch_SequenceSpreadsPositionalArgs(t *testing.T) {
	spy := &spyHandler{}
	d := newTestDispatcher(t, map[Method]Handler{MethodPrinter: spy.handle})

	a, b, c := "a", float64(2), map[string]any{"k": "v"}
	result := waitResult(t, d.Dispatch(context.Background(), Request{
		Method: "printer",
		Params: ListParams(a, b, c),
	}))

	require.True(t, result.OK())
	require.Equal(t, 1, spy.callCount())
	if diff := cmp.Diff([]any{a, b, c}, spy.lastArgs()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_SingleValueIsSoleArg(t *testing.T) {
	spy := &spyHandler{}
	d := newTestDispatcher(t, map[Method]Handler{MethodSetConfigJSON: spy.handle})

	v := map[string]any{"approved_users": []any{"alice"}}
	result := waitResult(t, d.Dispatch(context.Background(), Request{
		Method: "set_config_json",
		Params: ValueParams(v),
	}))

	require.True(t, result.OK())
	require.Equal(t, 1, spy.callCount())
	if diff := cmp.Diff([]any{v}, spy.lastArgs()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_FailureIsContained(t *testing.T) {
	failing := &spyHandler{err: errors.New("boom")}
	healthy := &spyHandler{value: "pong"}
	d := newTestDispatcher(t, map[Method]Handler{
		MethodSaveConfig: failing.handle,
		MethodPrinter:    healthy.handle,
	})

	result := waitResult(t, d.Dispatch(context.Background(), Request{Method: "save_config"}))
	require.NotNil(t, result.Failure)
	assert.Equal(t, CodeInvocationFailure, result.Failure.Code)
	assert.Contains(t, result.Failure.Message, "boom")

	// The dispatcher keeps serving calls afterwards
	value, err := d.Call(context.Background(), Request{Method: "printer", Params: ListParams("still here")})
	require.NoError(t, err)
	assert.Equal(t, "pong", value)
}

func TestDispatch_PanicIsContained(t *testing.T) {
	d := newTestDispatcher(t, map[Method]Handler{
		MethodReloadScripts: func(context.Context, []any) (any, error) {
			panic("boom")
		},
	})

	_, err := d.Call(context.Background(), Request{Method: "reload_scripts"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvocation)
	assert.Contains(t, err.Error(), "boom")
}

func TestDispatch_ClassifiesLifecycleMisuse(t *testing.T) {
	d := newTestDispatcher(t, map[Method]Handler{
		MethodCleanup: func(context.Context, []any) (any, error) {
			return nil, errors.Join(ErrLifecycleMisuse, errors.New("cleanup before initialize"))
		},
	})

	result := waitResult(t, d.Dispatch(context.Background(), Request{Method: "cleanup"}))
	require.NotNil(t, result.Failure)
	assert.Equal(t, CodeLifecycleMisuse, result.Failure.Code)
}

func TestDispatch_IsAsynchronous(t *testing.T) {
	release := make(chan struct{})
	d := newTestDispatcher(t, map[Method]Handler{
		MethodFindNewAssets: func(context.Context, []any) (any, error) {
			<-release
			return 3, nil
		},
	})

	pending := d.Dispatch(context.Background(), Request{Method: "find_new_assets"})

	_, ok := pending.Result()
	assert.False(t, ok, "result must still be pending while the handler runs")

	close(release)
	result := waitResult(t, pending)
	assert.Equal(t, 3, result.Value)
}

func TestDispatch_ConcurrentCallsDoNotBlockEachOther(t *testing.T) {
	release := make(chan struct{})
	d := newTestDispatcher(t, map[Method]Handler{
		MethodConnectTwitch: func(context.Context, []any) (any, error) {
			<-release
			return "slow", nil
		},
		MethodStopAllSounds: func(context.Context, []any) (any, error) {
			return "fast", nil
		},
	})

	slow := d.Dispatch(context.Background(), Request{Method: "connect_twitch"})
	fast := d.Dispatch(context.Background(), Request{Method: "stop_all_sounds"})

	// The fast call completes while the slow one is still outstanding
	fastResult := waitResult(t, fast)
	assert.Equal(t, "fast", fastResult.Value)
	_, ok := slow.Result()
	assert.False(t, ok)

	close(release)
	slowResult := waitResult(t, slow)
	assert.Equal(t, "slow", slowResult.Value)
}

func TestDispatch_CallerCancellationDoesNotCancelCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	handlerCtxErr := make(chan error, 1)

	d := newTestDispatcher(t, map[Method]Handler{
		MethodDisconnectTwitch: func(ctx context.Context, _ []any) (any, error) {
			close(started)
			<-release
			handlerCtxErr <- ctx.Err()
			return "done", nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	pending := d.Dispatch(ctx, Request{Method: "disconnect_twitch"})
	<-started
	cancel()

	_, err := pending.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	result := waitResult(t, pending)
	assert.Equal(t, "done", result.Value)
	assert.NoError(t, <-handlerCtxErr)
}

func TestDispatch_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	d := newTestDispatcher(t, map[Method]Handler{
		MethodPrinter:    noop,
		MethodSaveConfig: func(context.Context, []any) (any, error) { return nil, errors.New("disk full") },
	}, WithTracer(provider.Tracer("test")))

	_, err := d.Call(context.Background(), Request{Method: "printer", Params: ListParams("hi")})
	require.NoError(t, err)
	_, err = d.Call(context.Background(), Request{Method: "save_config"})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "bridge.call printer", spans[0].Name())
	assert.Equal(t, "bridge.call save_config", spans[1].Name())
	assert.Equal(t, "disk full", spans[1].Status().Description)
}

func TestDispatch_RedactsParams(t *testing.T) {
	var buf bytes.Buffer
	registry, err := NewRegistry(map[Method]Handler{
		MethodSetConfigJSON: noop,
		MethodPrinter:       noop,
	})
	require.NoError(t, err)
	d := NewDispatcher(registry, slog.New(slog.NewTextHandler(&buf, nil)), WithRedactedParams(MethodSetConfigJSON))

	_, err = d.Call(context.Background(), Request{Method: "set_config_json", Params: ValueParams(`{"twitch":{"auth_token":"s3cret"}}`)})
	require.NoError(t, err)
	_, err = d.Call(context.Background(), Request{Method: "printer", Params: ListParams("visible line")})
	require.NoError(t, err)

	logs := buf.String()
	assert.NotContains(t, logs, "s3cret")
	assert.Contains(t, logs, "Calling set_config_json with params: <redacted>")
	assert.Contains(t, logs, "Calling printer with ...params: visible line")
}

func TestDispatch_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	registry, err := NewRegistry(map[Method]Handler{MethodPrinter: noop})
	require.NoError(t, err)
	d := NewDispatcher(registry, slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := WithRequestID(context.Background(), "req-42")
	_, err = d.Call(ctx, Request{Method: "printer", Params: ListParams("hi")})
	require.NoError(t, err)

	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Contains(t, buf.String(), "request_id=req-42")
}

func TestDispatch_OutcomeLinesCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	registry, err := NewRegistry(map[Method]Handler{
		MethodPrinter: noop,
		MethodSaveConfig: func(context.Context, []any) (any, error) {
			return nil, errors.New("disk full")
		},
	})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := NewDispatcher(registry, logger)

	ctx := WithRequestID(context.Background(), "req-7")
	_, err = d.Call(ctx, Request{Method: "printer"})
	require.NoError(t, err)
	_, err = d.Call(ctx, Request{Method: "save_config"})
	require.Error(t, err)

	var outcomes int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, "Call completed") || strings.Contains(line, "Call failed") {
			outcomes++
			assert.Contains(t, line, "request_id=req-7")
		}
	}
	assert.Equal(t, 2, outcomes)
}
