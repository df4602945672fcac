package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

const activeBan = `(b.ends_at IS NULL OR b.ends_at > ?)`

// Ban bans username. bannedBy may be empty; a nil until bans forever.
func (s *Store) Ban(ctx context.Context, username, bannedBy, reason string, until *time.Time) (*Ban, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getUser(ctx, username)
	if err != nil {
		return nil, err
	}

	var bannedByID sql.NullString
	if bannedBy != "" {
		by, err := s.getUser(ctx, bannedBy)
		if err != nil {
			return nil, err
		}
		bannedByID = sql.NullString{String: by.ID, Valid: true}
		bannedBy = by.Username
	}

	ban := &Ban{
		ID:        uuid.New().String(),
		Username:  user.Username,
		BannedBy:  bannedBy,
		Reason:    reason,
		CreatedAt: s.now(),
	}

	var endsAt sql.NullTime
	if until != nil {
		end := until.UTC().Truncate(time.Second)
		ban.EndsAt = &end
		endsAt = sql.NullTime{Time: end, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bans (id, user_id, banned_by, reason, created_at, ends_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ban.ID, user.ID, bannedByID, ban.Reason, ban.CreatedAt, endsAt)
	if err != nil {
		return nil, dbError(err, "store.Ban")
	}

	s.logger.Info("User banned", "user", user.Username, "by", bannedBy, "reason", reason)
	return ban, nil
}

// Unban ends every active ban of username. It returns the number of bans
// ended, failing with CodeNotFound when there were none.
func (s *Store) Unban(ctx context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getUser(ctx, username)
	if err != nil {
		return 0, err
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE bans SET ends_at = ? WHERE user_id = ? AND (ends_at IS NULL OR ends_at > ?)
	`, now, user.ID, now)
	if err != nil {
		return 0, dbError(err, "store.Unban")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, mberror.Newf("%s is not banned.", user.Username).WithCode(mberror.CodeNotFound)
	}
	return int(rows), nil
}

// ActiveBan returns the ban in force for username, or nil
func (s *Store) ActiveBan(ctx context.Context, username string) (*Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+banColumns+`
		FROM bans b
		JOIN users u ON u.id = b.user_id
		LEFT JOIN users bu ON bu.id = b.banned_by
		WHERE u.username = ? AND `+activeBan+`
		ORDER BY b.ends_at IS NOT NULL, b.ends_at DESC
		LIMIT 1
	`, username, s.now())

	ban, err := scanBan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "store.ActiveBan")
	}
	return ban, nil
}

// ListBans returns all bans in force, newest first
func (s *Store) ListBans(ctx context.Context) ([]*Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+banColumns+`
		FROM bans b
		JOIN users u ON u.id = b.user_id
		LEFT JOIN users bu ON bu.id = b.banned_by
		WHERE `+activeBan+`
		ORDER BY b.created_at DESC, u.username COLLATE NOCASE
	`, s.now())
	if err != nil {
		return nil, dbError(err, "store.ListBans")
	}
	defer rows.Close()

	var bans []*Ban
	for rows.Next() {
		ban, err := scanBan(rows)
		if err != nil {
			return nil, dbError(err, "store.ListBans")
		}
		bans = append(bans, ban)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "store.ListBans")
	}
	return bans, nil
}

const banColumns = `b.id, u.username, bu.username, b.reason, b.created_at, b.ends_at`

func scanBan(row rowScanner) (*Ban, error) {
	var (
		ban      Ban
		bannedBy sql.NullString
		endsAt   sql.NullTime
	)
	if err := row.Scan(&ban.ID, &ban.Username, &bannedBy, &ban.Reason, &ban.CreatedAt, &endsAt); err != nil {
		return nil, err
	}
	ban.BannedBy = bannedBy.String
	if endsAt.Valid {
		end := endsAt.Time
		ban.EndsAt = &end
	}
	return &ban, nil
}
