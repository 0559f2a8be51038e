package storage

import (
	"context"
	"errors"

	"chatnotifier/internal/assets"
)

var ErrSettingNotFound = errors.New("setting not found")

// Storage defines the interface for the subsystem's persisted state
type Storage interface {
	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error

	// Assets
	ListAssets(ctx context.Context) ([]*assets.Asset, error)
	AddAssets(ctx context.Context, list []*assets.Asset) error
	RemoveAssets(ctx context.Context, paths []string) error

	// Lifecycle
	Close() error
}
