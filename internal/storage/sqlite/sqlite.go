package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"chatnotifier/internal/assets"
	"chatnotifier/internal/storage"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStorage implements storage.Storage using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

var _ storage.Storage = (*SQLiteStorage)(nil)

// New opens (creating if needed) the database at dbPath and applies migrations
func New(dbPath string) (*SQLiteStorage, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate applies the embedded schema migrations
func (s *SQLiteStorage) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	// Not closing m: its database driver would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// GetSetting retrieves a setting value by key
func (s *SQLiteStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", storage.ErrSettingNotFound, key)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// PutSetting creates or replaces a setting
func (s *SQLiteStorage) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

// ListAssets retrieves all known assets ordered by path
func (s *SQLiteStorage) ListAssets(ctx context.Context) ([]*assets.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, kind, size, discovered_at
		FROM assets ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*assets.Asset
	for rows.Next() {
		var a assets.Asset
		if err := rows.Scan(&a.Path, &a.Name, &a.Kind, &a.Size, &a.DiscoveredAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}

	return list, rows.Err()
}

// AddAssets records newly discovered assets, replacing rows with the same path
func (s *SQLiteStorage) AddAssets(ctx context.Context, list []*assets.Asset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO assets (path, name, kind, size, discovered_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range list {
		if _, err := stmt.ExecContext(ctx, a.Path, a.Name, a.Kind, a.Size, a.DiscoveredAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert asset %s: %w", a.Path, err)
		}
	}

	return tx.Commit()
}

// RemoveAssets deletes assets by path; unknown paths are ignored
func (s *SQLiteStorage) RemoveAssets(ctx context.Context, paths []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, path := range paths {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE path = ?`, path); err != nil {
			return fmt.Errorf("failed to delete asset %s: %w", path, err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
