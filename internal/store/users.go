package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

const userColumns = `u.id, u.username, u.display_name, u.created_at`

// EnsureUser returns the user named username, creating it on first sight.
// A non-empty displayName replaces the stored one.
func (s *Store) EnsureUser(ctx context.Context, username, displayName string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, mberror.New("username is required").WithCode(mberror.CodeInvalidFormat)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (id, username, display_name, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.New().String(), username, displayName, s.now())
	if err != nil {
		return nil, dbError(err, "store.EnsureUser")
	}

	if displayName != "" {
		_, err = s.db.ExecContext(ctx, `
			UPDATE users SET display_name = ? WHERE username = ? AND display_name != ?
		`, displayName, username, displayName)
		if err != nil {
			return nil, dbError(err, "store.EnsureUser")
		}
	}

	return s.getUser(ctx, username)
}

// GetUser returns the user named username. Names are case-insensitive.
func (s *Store) GetUser(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUser(ctx, username)
}

func (s *Store) getUser(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username = ?`, username)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", username)
	}
	if err != nil {
		return nil, dbError(err, "store.GetUser")
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
