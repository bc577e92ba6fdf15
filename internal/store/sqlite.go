package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nvhoang/shopfeed/internal/model"
)

// feedKey is the single kv key holding the serialized notification feed.
const feedKey = "notifications"

// SQLiteStore implements the Mirror interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations. Parent
// directories are created as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveFeed replaces the persisted notification feed.
func (s *SQLiteStore) SaveFeed(ctx context.Context, list []model.Notification) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling feed: %w", err)
	}
	return s.setValue(ctx, feedKey, string(data))
}

// LoadFeed returns the persisted notification feed. ok is false when
// the feed key is absent, which is distinct from an empty list.
func (s *SQLiteStore) LoadFeed(ctx context.Context) ([]model.Notification, bool, error) {
	value, ok, err := s.getValue(ctx, feedKey)
	if err != nil || !ok {
		return nil, ok, err
	}

	var list []model.Notification
	if err := json.Unmarshal([]byte(value), &list); err != nil {
		return nil, true, fmt.Errorf("unmarshaling feed: %w", err)
	}
	return list, true, nil
}

// DeleteFeed removes the persisted feed key entirely.
func (s *SQLiteStore) DeleteFeed(ctx context.Context) error {
	return s.deleteValue(ctx, feedKey)
}

// setValue inserts or replaces a kv entry.
func (s *SQLiteStore) setValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing kv entry %q: %w", key, err)
	}
	return nil
}

// getValue reads a kv entry. ok is false when the key is absent.
func (s *SQLiteStore) getValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading kv entry %q: %w", key, err)
	}
	return value, true, nil
}

// deleteValue removes a kv entry. Deleting an absent key is not an error.
func (s *SQLiteStore) deleteValue(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting kv entry %q: %w", key, err)
	}
	return nil
}
