package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

// CreateGroup creates an empty group
func (s *Store) CreateGroup(ctx context.Context, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t:") {
		return nil, mberror.Newf("Invalid group name: %q.", name).WithCode(mberror.CodeInvalidFormat)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group := &Group{ID: uuid.New().String(), Name: name, CreatedAt: s.now()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_groups (id, name, created_at) VALUES (?, ?, ?)
	`, group.ID, group.Name, group.CreatedAt)
	if isUniqueViolation(err) {
		return nil, mberror.Newf("Group already exists: %s.", name).
			WithCode(mberror.CodeDuplicate).
			WithDetail("group", name)
	}
	if err != nil {
		return nil, dbError(err, "store.CreateGroup")
	}
	return group, nil
}

// GetGroup returns the group called name
func (s *Store) GetGroup(ctx context.Context, name string) (*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getGroup(ctx, name)
}

func (s *Store) getGroup(ctx context.Context, name string) (*Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM user_groups WHERE name = ?
	`, name).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", name)
	}
	if err != nil {
		return nil, dbError(err, "store.GetGroup")
	}
	return &g, nil
}

// AddMember adds an existing user to a group
func (s *Store) AddMember(ctx context.Context, group, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.getGroup(ctx, group)
	if err != nil {
		return err
	}
	u, err := s.getUser(ctx, username)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, added_at) VALUES (?, ?, ?)
	`, g.ID, u.ID, s.now())
	if isUniqueViolation(err) {
		return mberror.Newf("%s is already in %s.", u.Username, g.Name).WithCode(mberror.CodeDuplicate)
	}
	if err != nil {
		return dbError(err, "store.AddMember")
	}
	s.invalidatePermissions()
	return nil
}

// RemoveMember removes a user from a group
func (s *Store) RemoveMember(ctx context.Context, group, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM group_members
		WHERE group_id = (SELECT id FROM user_groups WHERE name = ?)
		  AND user_id = (SELECT id FROM users WHERE username = ?)
	`, group, username)
	if err != nil {
		return dbError(err, "store.RemoveMember")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return mberror.Newf("%s is not in %s.", username, group).WithCode(mberror.CodeNotFound)
	}
	s.invalidatePermissions()
	return nil
}

// GroupsOf returns the names of the groups username belongs to
func (s *Store) GroupsOf(ctx context.Context, username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getUser(ctx, username); err != nil {
		return nil, err
	}

	return s.queryStrings(ctx, "store.GroupsOf", `
		SELECT g.name FROM user_groups g
		JOIN group_members m ON m.group_id = g.id
		JOIN users u ON u.id = m.user_id
		WHERE u.username = ?
		ORDER BY g.name COLLATE NOCASE
	`, username)
}

// Members returns the usernames in a group
func (s *Store) Members(ctx context.Context, group string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getGroup(ctx, group); err != nil {
		return nil, err
	}

	return s.queryStrings(ctx, "store.Members", `
		SELECT u.username FROM users u
		JOIN group_members m ON m.user_id = u.id
		JOIN user_groups g ON g.id = m.group_id
		WHERE g.name = ?
		ORDER BY u.username COLLATE NOCASE
	`, group)
}

func (s *Store) queryStrings(ctx context.Context, op, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, op)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, dbError(err, op)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, op)
	}
	return out, nil
}
