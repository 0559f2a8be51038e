// Package host binds the subsystem to the bridge whitelist and runs the
// startup and shutdown sequence of the host process.
package host

import (
	"context"
	"errors"
	"fmt"

	"chatnotifier/internal/assets"
	"chatnotifier/internal/bridge"
	"chatnotifier/internal/notifier"
	"chatnotifier/internal/scripts"
	"chatnotifier/internal/twitch"
)

// Lifecycle is the lifecycle manager as seen by the bridge.
type Lifecycle interface {
	IsInitialized() bool
	Initialize(ctx context.Context, workDir string) error
	Cleanup(ctx context.Context) error
}

// Subsystem is the set of subsystem operations reachable through the bridge.
type Subsystem interface {
	SaveConfig(ctx context.Context) error
	ConfigJSON(ctx context.Context) (string, error)
	SetConfigJSON(ctx context.Context, text string) error
	ConnectTwitch(ctx context.Context) error
	DisconnectTwitch(ctx context.Context) error
	TwitchStatus(ctx context.Context) (twitch.Status, error)
	Print(ctx context.Context, line string)
	StopAllSounds(ctx context.Context) (int, error)
	FindNewAssets(ctx context.Context) (*assets.ScanReport, error)
	ReloadScripts(ctx context.Context) (scripts.Report, error)
}

// NewRegistry binds every whitelisted method to lc or svc.
func NewRegistry(lc Lifecycle, svc Subsystem) (*bridge.Registry, error) {
	if lc == nil || svc == nil {
		return nil, fmt.Errorf("%w: lifecycle and subsystem are required", bridge.ErrInvalidBinding)
	}

	return bridge.NewRegistry(map[bridge.Method]bridge.Handler{
		bridge.MethodInitialize: func(ctx context.Context, args []any) (any, error) {
			workDir, err := bridge.StringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, lc.Initialize(ctx, workDir)
		},
		bridge.MethodCleanup: func(ctx context.Context, _ []any) (any, error) {
			return nil, lc.Cleanup(ctx)
		},
		bridge.MethodInitialized: func(_ context.Context, _ []any) (any, error) {
			return lc.IsInitialized(), nil
		},
		bridge.MethodSaveConfig: func(ctx context.Context, _ []any) (any, error) {
			return nil, classify(svc.SaveConfig(ctx))
		},
		bridge.MethodGetConfigJSON: func(ctx context.Context, _ []any) (any, error) {
			text, err := svc.ConfigJSON(ctx)
			if err != nil {
				return nil, classify(err)
			}
			return text, nil
		},
		bridge.MethodSetConfigJSON: func(ctx context.Context, args []any) (any, error) {
			text, err := bridge.StringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, classify(svc.SetConfigJSON(ctx, text))
		},
		bridge.MethodConnectTwitch: func(ctx context.Context, _ []any) (any, error) {
			return nil, classify(svc.ConnectTwitch(ctx))
		},
		bridge.MethodDisconnectTwitch: func(ctx context.Context, _ []any) (any, error) {
			return nil, classify(svc.DisconnectTwitch(ctx))
		},
		bridge.MethodTwitchConnectionStatus: func(ctx context.Context, _ []any) (any, error) {
			status, err := svc.TwitchStatus(ctx)
			if err != nil {
				return nil, classify(err)
			}
			return string(status), nil
		},
		bridge.MethodPrinter: func(ctx context.Context, args []any) (any, error) {
			line, err := bridge.StringArg(args, 0)
			if err != nil {
				return nil, err
			}
			svc.Print(ctx, line)
			return nil, nil
		},
		bridge.MethodStopAllSounds: func(ctx context.Context, _ []any) (any, error) {
			stopped, err := svc.StopAllSounds(ctx)
			if err != nil {
				return nil, classify(err)
			}
			return stopped, nil
		},
		bridge.MethodFindNewAssets: func(ctx context.Context, _ []any) (any, error) {
			report, err := svc.FindNewAssets(ctx)
			if err != nil {
				return nil, classify(err)
			}
			return report, nil
		},
		bridge.MethodReloadScripts: func(ctx context.Context, _ []any) (any, error) {
			report, err := svc.ReloadScripts(ctx)
			if err != nil {
				return nil, classify(err)
			}
			return report, nil
		},
	})
}

// classify marks calls made before initialization as lifecycle misuse.
func classify(err error) error {
	if errors.Is(err, notifier.ErrNotInitialized) {
		return fmt.Errorf("%w: %w", bridge.ErrLifecycleMisuse, err)
	}
	return err
}
