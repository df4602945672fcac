// Package store persists users, groups, bans and permission grants in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/pkg/core/cache"
	"github.com/manebot/manebot/pkg/core/logging"
)

// Config holds configuration for the SQLite store
type Config struct {
	Path        string
	BusyTimeout time.Duration

	// PermissionTTL bounds how long a permission decision is reused.
	// Zero disables the cache.
	PermissionTTL time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path:          "./data/manebot.db",
		BusyTimeout:   5 * time.Second,
		PermissionTTL: 30 * time.Second,
	}
}

// Store is the SQLite entity store
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *logging.Logger
	now    func() time.Time

	// decisions keyed by permissionKey; nil when disabled
	perms *cache.Cache[string, bool]
}

// Open opens or creates the database at cfg.Path
func Open(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path, busy.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logging.New("store"),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
	if cfg.PermissionTTL > 0 {
		s.perms = cache.New[string, bool](cache.Config{TTL: cfg.PermissionTTL})
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info("Store opened", "path", cfg.Path)
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE COLLATE NOCASE,
		display_name TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS group_members (
		group_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		added_at DATETIME NOT NULL,
		PRIMARY KEY (group_id, user_id),
		FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS bans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		banned_by TEXT,
		reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		ends_at DATETIME,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (banned_by) REFERENCES users(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS grants (
		subject_kind TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		node TEXT NOT NULL,
		allow INTEGER NOT NULL,
		PRIMARY KEY (subject_kind, subject_id, node)
	);

	CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
	CREATE INDEX IF NOT EXISTS idx_bans_user ON bans(user_id, ends_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// PingContext verifies the database is reachable
func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func dbError(err error, op string) error {
	return mberror.Wrap(err, "database error").
		WithCode(mberror.CodeDatabase).
		WithOperation(op)
}

func notFound(kind, name string) error {
	return mberror.Newf("No such %s: %s.", kind, name).
		WithCode(mberror.CodeNotFound).
		WithDetail(kind, name)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
