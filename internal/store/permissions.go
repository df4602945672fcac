package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/foundation/security"
)

// SetGrant records grant for node on a user or group
func (s *Store) SetGrant(ctx context.Context, kind SubjectKind, name string, perm *security.Permission, grant security.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.subjectID(ctx, kind, name)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grants (subject_kind, subject_id, node, allow) VALUES (?, ?, ?, ?)
		ON CONFLICT(subject_kind, subject_id, node) DO UPDATE SET allow = excluded.allow
	`, string(kind), id, perm.Node(), grant == security.Allow)
	if err != nil {
		return dbError(err, "store.SetGrant")
	}
	s.invalidatePermissions()
	return nil
}

// ClearGrant removes the grant for node from a user or group
func (s *Store) ClearGrant(ctx context.Context, kind SubjectKind, name string, perm *security.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.subjectID(ctx, kind, name)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM grants WHERE subject_kind = ? AND subject_id = ? AND node = ?
	`, string(kind), id, perm.Node())
	if err != nil {
		return dbError(err, "store.ClearGrant")
	}
	s.invalidatePermissions()
	return nil
}

// HasPermission resolves perm for username. A grant on the user decides
// first; otherwise any denying group wins over allowing groups; otherwise
// def applies.
func (s *Store) HasPermission(ctx context.Context, username string, perm *security.Permission, def security.Grant) (bool, error) {
	key := permissionKey(username, perm, def)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.perms != nil {
		if allowed, ok := s.perms.Get(key); ok {
			return allowed, nil
		}
	}

	allowed, err := s.resolvePermission(ctx, username, perm, def)
	if err == nil && s.perms != nil {
		s.perms.Set(key, allowed)
	}
	return allowed, err
}

func permissionKey(username string, perm *security.Permission, def security.Grant) string {
	return strings.ToLower(username) + "\x00" + perm.Node() + "\x00" + def.String()
}

// invalidatePermissions drops cached decisions; must hold the write lock
func (s *Store) invalidatePermissions() {
	if s.perms != nil {
		s.perms.Clear()
	}
}

func (s *Store) resolvePermission(ctx context.Context, username string, perm *security.Permission, def security.Grant) (bool, error) {
	user, err := s.getUser(ctx, username)
	if err != nil {
		return false, err
	}

	var allow bool
	err = s.db.QueryRowContext(ctx, `
		SELECT allow FROM grants WHERE subject_kind = ? AND subject_id = ? AND node = ?
	`, string(SubjectUser), user.ID, perm.Node()).Scan(&allow)
	switch {
	case err == nil:
		return allow, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, dbError(err, "store.HasPermission")
	}

	var allows, denies int
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN gr.allow THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN gr.allow THEN 0 ELSE 1 END), 0)
		FROM grants gr
		JOIN group_members m ON m.group_id = gr.subject_id
		WHERE gr.subject_kind = ? AND m.user_id = ? AND gr.node = ?
	`, string(SubjectGroup), user.ID, perm.Node()).Scan(&allows, &denies)
	if err != nil {
		return false, dbError(err, "store.HasPermission")
	}

	switch {
	case denies > 0:
		return false, nil
	case allows > 0:
		return true, nil
	default:
		return def == security.Allow, nil
	}
}

// Checker returns a security.Checker bound to username
func (s *Store) Checker(username string) security.Checker {
	return security.CheckerFunc(func(ctx context.Context, perm *security.Permission, def security.Grant) (bool, error) {
		return s.HasPermission(ctx, username, perm, def)
	})
}

func (s *Store) subjectID(ctx context.Context, kind SubjectKind, name string) (string, error) {
	switch kind {
	case SubjectUser:
		u, err := s.getUser(ctx, name)
		if err != nil {
			return "", err
		}
		return u.ID, nil
	case SubjectGroup:
		g, err := s.getGroup(ctx, name)
		if err != nil {
			return "", err
		}
		return g.ID, nil
	default:
		return "", mberror.Newf("unknown subject kind: %s", kind).WithCode(mberror.CodeInvalidFormat)
	}
}
