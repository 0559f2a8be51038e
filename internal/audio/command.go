package audio

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// CommandPlayer plays sounds by running an external player such as ffplay.
// The sound path is appended to Args.
type CommandPlayer struct {
	Command string
	Args    []string
}

// DefaultCommandPlayer uses ffplay without a window.
func DefaultCommandPlayer() *CommandPlayer {
	return &CommandPlayer{
		Command: "ffplay",
		Args:    []string{"-nodisp", "-autoexit", "-loglevel", "quiet"},
	}
}

// Play starts the player process.
func (p *CommandPlayer) Play(_ context.Context, path string) (Playback, error) {
	args := append(append([]string{}, p.Args...), path)
	// Not bound to the request context: a sound outlives the call that started it
	cmd := exec.Command(p.Command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.Command, err)
	}

	pb := &processPlayback{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

type processPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
	err  error
}

func (p *processPlayback) Stop() error {
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		p.err = p.cmd.Process.Kill()
	})
	return p.err
}

func (p *processPlayback) Done() <-chan struct{} {
	return p.done
}

// DefaultSilentLength is how long a silent sound lasts when SilentPlayer.Length is zero.
const DefaultSilentLength = time.Second

// SilentPlayer accepts every sound and finishes it after Length, or earlier when stopped.
// It is used when no audio output is available.
type SilentPlayer struct {
	Length time.Duration
}

func (p SilentPlayer) Play(_ context.Context, _ string) (Playback, error) {
	length := p.Length
	if length <= 0 {
		length = DefaultSilentLength
	}
	pb := &silentPlayback{done: make(chan struct{})}
	pb.timer = time.AfterFunc(length, pb.finish)
	return pb, nil
}

type silentPlayback struct {
	once  sync.Once
	done  chan struct{}
	timer *time.Timer
}

func (s *silentPlayback) finish() {
	s.once.Do(func() { close(s.done) })
}

func (s *silentPlayback) Stop() error {
	s.timer.Stop()
	s.finish()
	return nil
}

func (s *silentPlayback) Done() <-chan struct{} {
	return s.done
}
