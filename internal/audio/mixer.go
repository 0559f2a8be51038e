// Package audio tracks sound playbacks so they can be silenced together.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"chatnotifier/internal/idgen"
)

var (
	ErrEmptyPath    = errors.New("sound path is empty")
	ErrSoundMissing = errors.New("sound file not found")
)

// Playback is a sound that is currently playing.
type Playback interface {
	// Stop interrupts the sound. Done is closed once it has stopped.
	Stop() error
	Done() <-chan struct{}
}

// Player starts playing a sound file.
type Player interface {
	Play(ctx context.Context, path string) (Playback, error)
}

// Mixer plays sounds through a Player and keeps track of the active ones.
type Mixer struct {
	player Player
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]Playback
}

// NewMixer creates a mixer on top of player.
func NewMixer(player Player, logger *slog.Logger) *Mixer {
	return &Mixer{
		player: player,
		logger: logger.With("component", "audio"),
		active: make(map[string]Playback),
	}
}

// Play starts a one-shot sound and returns its playback id.
func (m *Mixer) Play(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrSoundMissing, path)
	}

	pb, err := m.player.Play(ctx, path)
	if err != nil {
		return "", fmt.Errorf("play %s: %w", path, err)
	}

	id := idgen.NewPlayback()
	m.mu.Lock()
	m.active[id] = pb
	m.mu.Unlock()

	m.logger.Debug("Sound started", "playback_id", id, "path", path)

	go func() {
		<-pb.Done()
		m.mu.Lock()
		delete(m.active, id)
		m.mu.Unlock()
		m.logger.Debug("Sound finished", "playback_id", id)
	}()

	return id, nil
}

// StopAll silences every active sound and returns how many were stopped.
func (m *Mixer) StopAll() int {
	m.mu.Lock()
	playing := make(map[string]Playback, len(m.active))
	for id, pb := range m.active {
		playing[id] = pb
		delete(m.active, id)
	}
	m.mu.Unlock()

	for id, pb := range playing {
		if err := pb.Stop(); err != nil {
			m.logger.Warn("Failed to stop sound", "playback_id", id, "error", err)
		}
	}

	if len(playing) > 0 {
		m.logger.Info("Stopped all sounds", "count", len(playing))
	}
	return len(playing)
}

// Active returns the number of sounds currently playing.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
