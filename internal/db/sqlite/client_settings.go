package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wardenbot/warden/internal/db"
)

func (s *sqliteClient) GetSettings(ctx context.Context, guildID string) (*db.Settings, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	res := &db.Settings{}
	err := s.db.GetContext(ctx, res, `
		SELECT guild_id, banned_words, max_links, anti_nuke_threshold, anti_nuke_window_sec, updated_at
		FROM settings WHERE guild_id = ?
	`, guildID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settings for guild %s: %w", guildID, err)
	}
	return res, nil
}

func (s *sqliteClient) SetSettings(ctx context.Context, settings *db.Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO settings (guild_id, banned_words, max_links, anti_nuke_threshold, anti_nuke_window_sec, updated_at)
		VALUES (:guild_id, :banned_words, :max_links, :anti_nuke_threshold, :anti_nuke_window_sec, :updated_at)
		ON CONFLICT(guild_id) DO UPDATE SET
		banned_words = excluded.banned_words,
		max_links = excluded.max_links,
		anti_nuke_threshold = excluded.anti_nuke_threshold,
		anti_nuke_window_sec = excluded.anti_nuke_window_sec,
		updated_at = excluded.updated_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("failed to set settings for guild %s: %w", settings.GuildID, err)
	}
	return nil
}
