// Package notifier is the native subsystem behind the bridge: it owns the
// settings store, the chat connection, sound playback and user scripts.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"chatnotifier/internal/assets"
	"chatnotifier/internal/audio"
	"chatnotifier/internal/chat"
	"chatnotifier/internal/scripts"
	"chatnotifier/internal/storage"
	"chatnotifier/internal/storage/sqlite"
	"chatnotifier/internal/twitch"
)

// Layout of the working directory
const (
	AssetsDir    = "Assets"
	ScriptsDir   = "Scripts"
	DatabaseFile = "chatnotifier.db"

	settingsKey = "config"
)

var (
	ErrNotInitialized     = errors.New("subsystem not initialized")
	ErrAlreadyInitialized = errors.New("subsystem already initialized")
)

// Options configure a Service.
type Options struct {
	// TwitchURL overrides the chat gateway address.
	TwitchURL string
	// Player plays sounds; defaults to audio.SilentPlayer.
	Player audio.Player
	// OpenStorage opens the settings database; defaults to sqlite.New.
	OpenStorage func(path string) (storage.Storage, error)
	// OnNotification is called for every accepted chat command.
	OnNotification func(chat.Notification)
}

// session holds everything that exists between Setup and Teardown.
type session struct {
	workDir  string
	store    storage.Storage
	settings Settings
	router   *chat.Router
	scanner  *assets.Scanner
	engine   *scripts.Engine
	watcher  *scripts.Watcher
	twitch   *twitch.Client
}

// Service implements lifecycle.Subsystem and the operations reachable through the bridge.
type Service struct {
	opts    Options
	logger  *slog.Logger
	printer *slog.Logger
	mixer   *audio.Mixer

	mu   sync.RWMutex
	sess *session
}

// NewService creates a service that has not been set up yet.
func NewService(opts Options, logger *slog.Logger) *Service {
	if opts.Player == nil {
		opts.Player = audio.SilentPlayer{}
	}
	if opts.OpenStorage == nil {
		opts.OpenStorage = func(path string) (storage.Storage, error) {
			return sqlite.New(path)
		}
	}
	return &Service{
		opts:    opts,
		logger:  logger.With("component", "notifier"),
		printer: logger.With("component", "printer"),
		mixer:   audio.NewMixer(opts.Player, logger),
	}
}

// Setup prepares the working directory, opens storage, loads settings and scripts.
func (s *Service) Setup(ctx context.Context, workDir string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil {
		return ErrAlreadyInitialized
	}

	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	sess := &session{workDir: workDir}
	defer func() {
		if err != nil {
			sess.close(s.logger)
		}
	}()

	// Directories and storage
	scriptsDir := filepath.Join(workDir, ScriptsDir)
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}
	store, err := s.opts.OpenStorage(filepath.Join(workDir, DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	sess.store = store
	sess.scanner = assets.NewScanner(filepath.Join(workDir, AssetsDir), store, s.logger)
	if err := sess.scanner.EnsureDirs(); err != nil {
		return err
	}

	// Settings
	sess.settings, err = loadSettings(ctx, store)
	if err != nil {
		return err
	}
	sess.router = chat.NewRouter(sess.settings.Commands, sess.settings.ApprovedUsers)

	// Assets
	if _, err := sess.scanner.Scan(ctx); err != nil {
		return fmt.Errorf("failed to scan assets: %w", err)
	}

	// Scripts
	sess.engine = scripts.NewEngine(&scriptHost{svc: s, scanner: sess.scanner}, s.logger)
	if _, err := sess.engine.Reload(scriptsDir); err != nil {
		return fmt.Errorf("failed to load scripts: %w", err)
	}
	sess.watcher = scripts.NewWatcher(scriptsDir, func() error {
		_, err := sess.engine.Reload(scriptsDir)
		return err
	}, s.logger)
	if sess.settings.WatchScripts {
		if err := sess.watcher.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to watch scripts: %w", err)
		}
	}

	sess.twitch = twitch.NewClient(s.opts.TwitchURL, s.handleMessage, s.logger)

	s.sess = sess
	s.logger.Info("Subsystem ready", "work_dir", workDir, "scripts", len(sess.engine.Loaded()))
	return nil
}

// Teardown closes the chat connection, silences sounds, unloads scripts and closes storage.
func (s *Service) Teardown(ctx context.Context) error {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.mu.Unlock()

	if sess == nil {
		return ErrNotInitialized
	}

	s.mixer.StopAll()
	if err := sess.close(s.logger); err != nil {
		return err
	}
	s.logger.Info("Subsystem torn down", "work_dir", sess.workDir)
	return nil
}

// close releases whatever part of the session has been created.
func (sess *session) close(logger *slog.Logger) error {
	if sess.watcher != nil {
		sess.watcher.Stop()
	}
	if sess.twitch != nil {
		if err := sess.twitch.Close(); err != nil {
			logger.Warn("Failed to close chat connection", "error", err)
		}
	}
	if sess.engine != nil {
		sess.engine.Close()
	}
	if sess.store != nil {
		if err := sess.store.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}

func (s *Service) current() (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, ErrNotInitialized
	}
	return s.sess, nil
}

func loadSettings(ctx context.Context, store storage.Storage) (Settings, error) {
	text, err := store.GetSetting(ctx, settingsKey)
	if errors.Is(err, storage.ErrSettingNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return ParseSettings(text)
}

// SaveConfig persists the current settings.
func (s *Service) SaveConfig(ctx context.Context) error {
	sess, err := s.current()
	if err != nil {
		return err
	}

	s.mu.RLock()
	text, err := sess.settings.JSON()
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := sess.store.PutSetting(ctx, settingsKey, text); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info("Settings saved")
	return nil
}

// ConfigJSON returns the current settings as JSON text.
func (s *Service) ConfigJSON(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return "", ErrNotInitialized
	}
	return s.sess.settings.JSON()
}

// SetConfigJSON replaces the current settings. They are persisted by SaveConfig.
func (s *Service) SetConfigJSON(ctx context.Context, text string) error {
	settings, err := ParseSettings(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	sess := s.sess
	if sess == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	watchChanged := sess.settings.WatchScripts != settings.WatchScripts
	sess.settings = settings
	sess.router = chat.NewRouter(settings.Commands, settings.ApprovedUsers)

	// Watcher toggles happen under mu; Teardown takes mu before stopping it.
	if watchChanged {
		if settings.WatchScripts {
			if err := sess.watcher.Start(context.WithoutCancel(ctx)); err != nil {
				s.mu.Unlock()
				return fmt.Errorf("failed to watch scripts: %w", err)
			}
		} else {
			sess.watcher.Stop()
		}
	}
	s.mu.Unlock()

	s.logger.Info("Settings updated",
		"commands", len(settings.Commands),
		"approved_users", len(settings.ApprovedUsers),
		"watch_scripts", settings.WatchScripts)
	return nil
}

// ConnectTwitch opens the chat connection with the configured credentials.
func (s *Service) ConnectTwitch(ctx context.Context) error {
	sess, err := s.current()
	if err != nil {
		return err
	}

	s.mu.RLock()
	creds := sess.settings.Twitch
	s.mu.RUnlock()

	return sess.twitch.Connect(ctx, creds)
}

// DisconnectTwitch closes the chat connection.
func (s *Service) DisconnectTwitch(ctx context.Context) error {
	sess, err := s.current()
	if err != nil {
		return err
	}
	return sess.twitch.Disconnect()
}

// TwitchStatus reports the chat connection status.
func (s *Service) TwitchStatus(ctx context.Context) (twitch.Status, error) {
	sess, err := s.current()
	if err != nil {
		return "", err
	}
	return sess.twitch.Status(), nil
}

// Print writes a diagnostic line. It works before Setup.
func (s *Service) Print(ctx context.Context, line string) {
	s.printer.InfoContext(ctx, line)
}

// StopAllSounds silences every playing sound and returns how many were stopped.
func (s *Service) StopAllSounds(ctx context.Context) (int, error) {
	if _, err := s.current(); err != nil {
		return 0, err
	}
	return s.mixer.StopAll(), nil
}

// FindNewAssets rescans the asset directories.
func (s *Service) FindNewAssets(ctx context.Context) (*assets.ScanReport, error) {
	sess, err := s.current()
	if err != nil {
		return nil, err
	}
	return sess.scanner.Scan(ctx)
}

// ReloadScripts reloads every user script.
func (s *Service) ReloadScripts(ctx context.Context) (scripts.Report, error) {
	sess, err := s.current()
	if err != nil {
		return scripts.Report{}, err
	}
	return sess.engine.Reload(filepath.Join(sess.workDir, ScriptsDir))
}

// handleMessage runs on the chat connection's read goroutine.
func (s *Service) handleMessage(msg twitch.Message) {
	s.mu.RLock()
	sess := s.sess
	var router *chat.Router
	if sess != nil {
		router = sess.router
	}
	s.mu.RUnlock()

	if sess == nil {
		return
	}

	if n, ok := router.Route(msg); ok {
		s.logger.Info("Chat notification",
			"user", n.User,
			"command", n.Command,
			"text", n.Text,
			"sound", n.Sound,
			"art", n.Art)

		if n.Sound != "" {
			if path, found := sess.scanner.Find(assets.KindSound, n.Sound); found {
				if _, err := s.mixer.Play(context.Background(), path); err != nil {
					s.logger.Warn("Failed to play notification sound", "sound", n.Sound, "error", err)
				}
			}
		}
		if s.opts.OnNotification != nil {
			s.opts.OnNotification(*n)
		}
	}

	sess.engine.OnMessage(msg.User, msg.Text)
}

// scriptHost exposes the subsystem to user scripts.
type scriptHost struct {
	svc     *Service
	scanner *assets.Scanner
}

func (h *scriptHost) SoundAssetsPath() string { return h.scanner.SoundsPath() }
func (h *scriptHost) TTSAssetsPath() string   { return h.scanner.TTSPath() }

func (h *scriptHost) PlayOneshot(path string) error {
	_, err := h.svc.mixer.Play(context.Background(), path)
	return err
}

func (h *scriptHost) Print(line string) {
	h.svc.printer.Info(line)
}
