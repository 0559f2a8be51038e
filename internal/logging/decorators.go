package logging

import (
	"context"
	"log/slog"
	"time"

	"chatnotifier/internal/lifecycle"
)

// SubsystemLogger wraps a lifecycle.Subsystem and logs setup and teardown
type SubsystemLogger struct {
	subsystem lifecycle.Subsystem
	logger    *slog.Logger
}

// NewSubsystemLogger creates a new logging decorator for a Subsystem
func NewSubsystemLogger(subsystem lifecycle.Subsystem, logger *slog.Logger) lifecycle.Subsystem {
	return &SubsystemLogger{
		subsystem: subsystem,
		logger:    logger.With("interface", "Subsystem"),
	}
}

func (l *SubsystemLogger) Setup(ctx context.Context, workDir string) error {
	start := time.Now()
	l.logger.Info("Setup called",
		"work_dir", workDir)

	err := l.subsystem.Setup(ctx, workDir)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("Setup failed",
			"work_dir", workDir,
			"duration", duration,
			"error", err)
		return err
	}

	l.logger.Info("Setup completed",
		"work_dir", workDir,
		"duration", duration)

	return nil
}

func (l *SubsystemLogger) Teardown(ctx context.Context) error {
	start := time.Now()
	l.logger.Info("Teardown called")

	err := l.subsystem.Teardown(ctx)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("Teardown failed",
			"duration", duration,
			"error", err)
		return err
	}

	l.logger.Info("Teardown completed",
		"duration", duration)

	return nil
}
