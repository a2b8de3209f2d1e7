package sqlite

import (
	"context"
	"fmt"

	"github.com/wardenbot/warden/internal/db"
)

func (s *sqliteClient) AddWarn(ctx context.Context, warn *db.Warn) (*db.Warn, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO warns (guild_id, user_id, moderator_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		warn.GuildID,
		warn.UserID,
		warn.ModeratorID,
		warn.Reason,
		warn.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add warn for user %s: %w", warn.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	warn.ID = id
	return warn, nil
}

func (s *sqliteClient) GetWarns(ctx context.Context, guildID, userID string) ([]*db.Warn, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var warns []*db.Warn
	err := s.db.SelectContext(ctx, &warns, `
		SELECT id, guild_id, user_id, moderator_id, reason, created_at
		FROM warns
		WHERE guild_id = ? AND user_id = ?
		ORDER BY created_at ASC
	`, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get warns for user %s: %w", userID, err)
	}
	return warns, nil
}
