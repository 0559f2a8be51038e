// Package scripts runs user Lua scripts that react to chat messages.
package scripts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"
)

const (
	// Extension of user script files.
	Extension = ".lua"

	apiTableName = "chatnotifier"
	onLoadHook   = "on_load"
	onMsgHook    = "on_message"
)

// Host is what scripts can reach through the chatnotifier table.
type Host interface {
	SoundAssetsPath() string
	TTSAssetsPath() string
	PlayOneshot(path string) error
	Print(line string)
}

// Report describes the outcome of a reload.
type Report struct {
	Loaded []string          `json:"loaded"`
	Failed map[string]string `json:"failed,omitempty"`
}

type script struct {
	name  string
	state *lua.State
}

// Engine owns one Lua state per script. Lua states are not safe for
// concurrent use, so every entry point holds mu.
type Engine struct {
	host   Host
	logger *slog.Logger

	mu      sync.Mutex
	scripts []*script
}

// NewEngine creates an engine with no scripts loaded.
func NewEngine(host Host, logger *slog.Logger) *Engine {
	return &Engine{
		host:   host,
		logger: logger.With("component", "scripts"),
	}
}

// Reload drops every loaded script and loads all scripts found in dir.
// A script that fails to compile, run or finish on_load is reported and skipped.
func (e *Engine) Reload(dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("read scripts dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.scripts = nil
	report := Report{Loaded: []string{}}
	for _, name := range files {
		s, err := e.load(filepath.Join(dir, name), name)
		if err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[name] = err.Error()
			e.logger.Warn("Failed to load script", "script", name, "error", err)
			continue
		}
		e.scripts = append(e.scripts, s)
		report.Loaded = append(report.Loaded, name)
	}

	e.logger.Info("Scripts reloaded", "dir", dir, "loaded", len(report.Loaded), "failed", len(report.Failed))
	return report, nil
}

func (e *Engine) load(path, name string) (*script, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	e.register(l, name)

	if err := lua.LoadFile(l, path, ""); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	s := &script{name: name, state: l}
	if err := s.call(onLoadHook); err != nil {
		return nil, fmt.Errorf("%s: %w", onLoadHook, err)
	}
	return s, nil
}

// register installs the chatnotifier table and routes print to the host.
func (e *Engine) register(l *lua.State, name string) {
	logger := e.logger.With("script", name)

	printer := func(l *lua.State) int {
		n := l.Top()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			s, _ := lua.ToStringMeta(l, i)
			l.Pop(1)
			parts = append(parts, s)
		}
		e.host.Print(strings.Join(parts, "\t"))
		return 0
	}

	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "get_sound_assets_path", Function: func(l *lua.State) int {
			l.PushString(e.host.SoundAssetsPath())
			return 1
		}},
		{Name: "get_tts_assets_path", Function: func(l *lua.State) int {
			l.PushString(e.host.TTSAssetsPath())
			return 1
		}},
		{Name: "play_oneshot_file", Function: func(l *lua.State) int {
			path := lua.CheckString(l, 1)
			if err := e.host.PlayOneshot(path); err != nil {
				logger.Warn("Script failed to play sound", "path", path, "error", err)
				l.PushBoolean(false)
				return 1
			}
			l.PushBoolean(true)
			return 1
		}},
		{Name: "print", Function: printer},
	}, 0)
	l.SetGlobal(apiTableName)

	l.Register("print", printer)
}

// call runs a global hook when the script defines one.
func (s *script) call(hook string, args ...string) error {
	l := s.state
	top := l.Top()
	defer l.SetTop(top)

	l.Global(hook)
	if !l.IsFunction(-1) {
		return nil
	}
	for _, arg := range args {
		l.PushString(arg)
	}
	return l.ProtectedCall(len(args), 0, 0)
}

// OnMessage hands a chat message to every loaded script's on_message hook.
func (e *Engine) OnMessage(user, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.scripts {
		if err := s.call(onMsgHook, user, message); err != nil {
			e.logger.Warn("Script on_message failed", "script", s.name, "error", err)
		}
	}
}

// Loaded returns the names of the loaded scripts.
func (e *Engine) Loaded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.scripts))
	for _, s := range e.scripts {
		names = append(names, s.name)
	}
	return names
}

// Close unloads every script.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts = nil
}
