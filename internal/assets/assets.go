// Package assets discovers sound and text-to-speech assets under the working directory.
package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind classifies an asset.
type Kind string

const (
	KindSound Kind = "sound"
	KindTTS   Kind = "tts"
)

// Directory names under the assets root
const (
	SoundsDir = "Sounds"
	TTSDir    = "TTS"
)

var kindExtensions = map[Kind][]string{
	KindSound: {".wav", ".opus", ".mp3", ".ogg", ".flac"},
	KindTTS:   {".onnx"},
}

// Asset is a file the subsystem can play or load.
type Asset struct {
	Path         string    `json:"path"` // relative to the assets root, slash separated
	Name         string    `json:"name"` // file name without extension
	Kind         Kind      `json:"kind"`
	Size         int64     `json:"size"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Store persists known assets between scans.
type Store interface {
	ListAssets(ctx context.Context) ([]*Asset, error)
	AddAssets(ctx context.Context, assets []*Asset) error
	RemoveAssets(ctx context.Context, paths []string) error
}

// ScanReport describes what changed since the previous scan.
type ScanReport struct {
	Added   []*Asset `json:"added"`
	Removed []string `json:"removed"`
	Total   int      `json:"total"`
}

// Scanner walks the assets root and reconciles it with the store.
type Scanner struct {
	root   string
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewScanner creates a scanner over root.
func NewScanner(root string, store Store, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		root:   root,
		store:  store,
		logger: logger.With("component", "assets"),
		now:    time.Now,
	}
}

// Root returns the assets root directory.
func (s *Scanner) Root() string {
	return s.root
}

// SoundsPath returns the directory holding sound assets.
func (s *Scanner) SoundsPath() string {
	return filepath.Join(s.root, SoundsDir)
}

// TTSPath returns the directory holding text-to-speech voices.
func (s *Scanner) TTSPath() string {
	return filepath.Join(s.root, TTSDir)
}

// EnsureDirs creates the asset directories if they are missing.
func (s *Scanner) EnsureDirs() error {
	for _, dir := range []string{s.SoundsPath(), s.TTSPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create asset directory %s: %w", dir, err)
		}
	}
	return nil
}

// Scan finds assets added or removed since the last scan and records them in the store.
func (s *Scanner) Scan(ctx context.Context) (*ScanReport, error) {
	found, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}

	known, err := s.store.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list known assets: %w", err)
	}
	knownPaths := make(map[string]bool, len(known))
	for _, a := range known {
		knownPaths[a.Path] = true
	}

	report := &ScanReport{Added: []*Asset{}, Removed: []string{}, Total: len(found)}
	for path, asset := range found {
		if !knownPaths[path] {
			report.Added = append(report.Added, asset)
		}
	}
	for path := range knownPaths {
		if _, ok := found[path]; !ok {
			report.Removed = append(report.Removed, path)
		}
	}
	sort.Slice(report.Added, func(i, j int) bool { return report.Added[i].Path < report.Added[j].Path })
	sort.Strings(report.Removed)

	if len(report.Added) > 0 {
		if err := s.store.AddAssets(ctx, report.Added); err != nil {
			return nil, fmt.Errorf("failed to record new assets: %w", err)
		}
	}
	if len(report.Removed) > 0 {
		if err := s.store.RemoveAssets(ctx, report.Removed); err != nil {
			return nil, fmt.Errorf("failed to forget removed assets: %w", err)
		}
	}

	s.logger.Info("Asset scan completed",
		"added", len(report.Added),
		"removed", len(report.Removed),
		"total", report.Total)

	return report, nil
}

func (s *Scanner) walk(ctx context.Context) (map[string]*Asset, error) {
	found := make(map[string]*Asset)
	now := s.now()

	for kind, dir := range map[Kind]string{KindSound: s.SoundsPath(), KindTTS: s.TTSPath()} {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() || !hasExtension(kind, path) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			base := filepath.Base(path)

			found[rel] = &Asset{
				Path:         rel,
				Name:         strings.TrimSuffix(base, filepath.Ext(base)),
				Kind:         kind,
				Size:         info.Size(),
				DiscoveredAt: now,
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
	}

	return found, nil
}

func hasExtension(kind Kind, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range kindExtensions[kind] {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Find returns the path of the first asset of kind named name, trying extensions in order.
func (s *Scanner) Find(kind Kind, name string) (string, bool) {
	dir := s.SoundsPath()
	if kind == KindTTS {
		dir = s.TTSPath()
	}
	for _, ext := range kindExtensions[kind] {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
