// Package lifecycle guards one-time initialization and cleanup of the native subsystem.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"chatnotifier/internal/bridge"
)

var (
	// ErrLifecycleMisuse is returned for cleanup before initialization and for
	// concurrent initialize calls.
	ErrLifecycleMisuse = bridge.ErrLifecycleMisuse
	ErrSetupFailed     = errors.New("subsystem setup failed")
)

// Subsystem is the native collaborator whose persisted state is managed here.
type Subsystem interface {
	Setup(ctx context.Context, workDir string) error
	Teardown(ctx context.Context) error
}

// State is the lifecycle state of the subsystem.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateInitialized
	StateCleaningUp
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateCleaningUp:
		return "cleaning up"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager owns the subsystem handle and its state machine:
//
//	Uninitialized --Initialize ok--> Initialized --Cleanup--> Uninitialized
//	Uninitialized --Initialize err--> Uninitialized
type Manager struct {
	mu        sync.Mutex
	state     State
	workDir   string
	subsystem Subsystem
	logger    *slog.Logger
}

// NewManager creates a manager for sub in the uninitialized state.
func NewManager(sub Subsystem, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		subsystem: sub,
		logger:    logger.With("component", "lifecycle"),
	}
}

// IsInitialized reports whether the subsystem is ready. Safe to call at any time.
func (m *Manager) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateInitialized
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// WorkDir returns the directory the subsystem was initialized with, or "" when not initialized.
func (m *Manager) WorkDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workDir
}

// Initialize sets the subsystem up in workDir. It is a no-op when already initialized.
// A failed setup leaves the manager uninitialized so the call may be retried.
func (m *Manager) Initialize(ctx context.Context, workDir string) error {
	if strings.TrimSpace(workDir) == "" {
		return fmt.Errorf("%w: working directory is required", ErrSetupFailed)
	}

	m.mu.Lock()
	switch m.state {
	case StateInitialized:
		current := m.workDir
		m.mu.Unlock()
		m.logger.Debug("Initialize skipped, already initialized", "work_dir", current)
		return nil
	case StateInitializing, StateCleaningUp:
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: initialize called while %s", ErrLifecycleMisuse, state)
	}
	m.state = StateInitializing
	m.mu.Unlock()

	err := m.subsystem.Setup(ctx, workDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateUninitialized
		m.logger.Error("Subsystem setup failed", "work_dir", workDir, "error", err)
		return fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}

	m.state = StateInitialized
	m.workDir = workDir
	m.logger.Info("Subsystem initialized", "work_dir", workDir)
	return nil
}

// Cleanup releases the subsystem. Calling it when not initialized is reported as misuse.
// The manager returns to uninitialized even when teardown reports an error.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateInitialized {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: cleanup called while %s", ErrLifecycleMisuse, state)
	}
	m.state = StateCleaningUp
	m.mu.Unlock()

	err := m.subsystem.Teardown(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateUninitialized
	m.workDir = ""
	if err != nil {
		m.logger.Error("Subsystem teardown failed", "error", err)
		return fmt.Errorf("subsystem teardown: %w", err)
	}

	m.logger.Info("Subsystem cleaned up")
	return nil
}
