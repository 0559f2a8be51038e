package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatnotifier/config"
	"chatnotifier/internal/api"
	"chatnotifier/internal/audio"
	"chatnotifier/internal/bridge"
	"chatnotifier/internal/host"
	"chatnotifier/internal/lifecycle"
	"chatnotifier/internal/logging"
	"chatnotifier/internal/notifier"
	"chatnotifier/internal/scheduler"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConfigPath = "config.json"
	silentPlayer      = "none"
)

var (
	configPath string
	useEnv     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the host and serve bridge calls over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to configuration file (.json or .yaml)")
	serveCmd.Flags().BoolVar(&useEnv, "env", false, "Load configuration from CHATNOTIFIER_* environment variables")
}

func loadConfig() (*config.Config, error) {
	if useEnv {
		return config.LoadFromEnv()
	}
	return config.Load(configPath)
}

func newPlayer(command string) audio.Player {
	fields := strings.Fields(command)
	switch {
	case len(fields) == 0:
		return audio.DefaultCommandPlayer()
	case fields[0] == silentPlayer:
		return audio.SilentPlayer{}
	default:
		return &audio.CommandPlayer{Command: fields[0], Args: fields[1:]}
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
	slog.SetDefault(logger)

	svc := notifier.NewService(notifier.Options{
		TwitchURL: cfg.Twitch.URL,
		Player:    newPlayer(cfg.Subsystem.PlayerCommand),
	}, logger)
	lc := lifecycle.NewManager(logging.NewSubsystemLogger(svc, logger), logger)

	registry, err := host.NewRegistry(lc, svc)
	if err != nil {
		return fmt.Errorf("failed to build registry: %w", err)
	}
	dispatcher := bridge.NewDispatcher(registry, logger,
		bridge.WithRedactedParams(bridge.MethodSetConfigJSON))

	h := host.New(dispatcher, logger)
	if err := h.Start(parent, cfg.Subsystem.WorkDir); err != nil {
		return fmt.Errorf("failed to start host: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := h.Stop(stopCtx); err != nil {
			logger.Error("Host stop failed", "error", err)
		}
	}()

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(api.RouterConfig{
			Dispatcher: dispatcher,
			Readiness:  lc,
			APIKey:     cfg.Security.APIKey,
			Logger:     logger,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var sched *scheduler.Scheduler
	if interval := cfg.Subsystem.RescanInterval.Std(); interval > 0 {
		sched = scheduler.NewScheduler(dispatcher, lc, scheduler.DefaultJobs(), interval, logger)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if sched != nil {
		g.Go(func() error {
			sched.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Starting graceful shutdown")

		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Graceful shutdown complete")
	return nil
}
