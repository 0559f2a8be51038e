package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chatnotifier/internal/bridge"
)

// Caller runs a bridge request to completion
type Caller interface {
	Call(ctx context.Context, req bridge.Request) (any, error)
}

// Readiness reports whether the subsystem can take calls
type Readiness interface {
	IsInitialized() bool
}

// Job is a call made on every tick
type Job struct {
	Name    string
	Request bridge.Request
}

// DefaultJobs returns the maintenance calls made by the host
func DefaultJobs() []Job {
	return []Job{
		{Name: "asset-rescan", Request: bridge.Request{Method: bridge.MethodFindNewAssets.String()}},
	}
}

// Scheduler periodically dispatches maintenance calls
type Scheduler struct {
	caller    Caller
	readiness Readiness
	jobs      []Job
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(caller Caller, readiness Readiness, jobs []Job, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		caller:    caller,
		readiness: readiness,
		jobs:      jobs,
		interval:  interval,
		stopChan:  make(chan struct{}),
		logger:    logger.With("component", "scheduler"),
	}
}

// Start runs the scheduler loop until Stop is called or ctx is done
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Scheduler started", "interval", s.interval, "jobs", len(s.jobs))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-s.stopChan:
			s.logger.Info("Scheduler stopped")
			return
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// tick performs one cycle of the scheduler
func (s *Scheduler) tick(ctx context.Context) {
	if !s.readiness.IsInitialized() {
		s.logger.Debug("Scheduler tick skipped, subsystem not initialized")
		return
	}

	s.logger.Debug("Scheduler tick", "jobs", len(s.jobs))

	for _, job := range s.jobs {
		start := time.Now()
		if _, err := s.caller.Call(ctx, job.Request); err != nil {
			s.logger.Error("Scheduled job failed",
				"job", job.Name,
				"method", job.Request.Method,
				"error", err)
			continue
		}
		s.logger.Debug("Scheduled job completed",
			"job", job.Name,
			"duration", time.Since(start))
	}
}
