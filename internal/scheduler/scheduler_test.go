package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chatnotifier/internal/bridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type mockCaller struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockCaller) Call(ctx context.Context, req bridge.Request) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req.Method)
	return nil, m.err
}

func (m *mockCaller) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockReadiness struct {
	ready atomic.Bool
}

func (m *mockReadiness) IsInitialized() bool {
	return m.ready.Load()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_TickRunsJobs(t *testing.T) {
	caller := &mockCaller{}
	readiness := &mockReadiness{}
	readiness.ready.Store(true)

	jobs := []Job{
		{Name: "rescan", Request: bridge.Request{Method: "find_new_assets"}},
		{Name: "reload", Request: bridge.Request{Method: "reload_scripts"}},
	}
	s := NewScheduler(caller, readiness, jobs, time.Minute, testLogger())

	s.tick(context.Background())

	assert.Equal(t, []string{"find_new_assets", "reload_scripts"}, caller.calls)
}

func TestScheduler_TickSkippedWhenNotInitialized(t *testing.T) {
	caller := &mockCaller{}
	s := NewScheduler(caller, &mockReadiness{}, DefaultJobs(), time.Minute, testLogger())

	s.tick(context.Background())

	assert.Empty(t, caller.calls)
}

func TestScheduler_FailedJobDoesNotStopOthers(t *testing.T) {
	caller := &mockCaller{err: errors.New("boom")}
	readiness := &mockReadiness{}
	readiness.ready.Store(true)

	jobs := []Job{
		{Name: "a", Request: bridge.Request{Method: "find_new_assets"}},
		{Name: "b", Request: bridge.Request{Method: "reload_scripts"}},
	}
	s := NewScheduler(caller, readiness, jobs, time.Minute, testLogger())

	s.tick(context.Background())

	assert.Len(t, caller.calls, 2)
}

func TestScheduler_StartAndStop(t *testing.T) {
	caller := &mockCaller{}
	readiness := &mockReadiness{}
	readiness.ready.Store(true)
	s := NewScheduler(caller, readiness, DefaultJobs(), 10*time.Millisecond, testLogger())

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return caller.count() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopsWithContext(t *testing.T) {
	s := NewScheduler(&mockCaller{}, &mockReadiness{}, nil, time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestDefaultJobs(t *testing.T) {
	jobs := DefaultJobs()
	require.Len(t, jobs, 1)

	_, err := bridge.ParseMethod(jobs[0].Request.Method)
	assert.NoError(t, err)
}
