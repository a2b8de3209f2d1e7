package sqlite

import (
	"context"
	"fmt"

	"github.com/wardenbot/warden/internal/db"
)

func (s *sqliteClient) AddIncident(ctx context.Context, incident *db.Incident) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO incidents (id, guild_id, actor_id, pattern, notified, banned, locked_down, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		incident.ID,
		incident.GuildID,
		incident.ActorID,
		incident.Pattern,
		incident.Notified,
		incident.Banned,
		incident.LockedDown,
		incident.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add incident %s: %w", incident.ID, err)
	}
	return nil
}

func (s *sqliteClient) GetIncidents(ctx context.Context, guildID string, limit int) ([]*db.Incident, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var incidents []*db.Incident
	err := s.db.SelectContext(ctx, &incidents, `
		SELECT id, guild_id, actor_id, pattern, notified, banned, locked_down, created_at
		FROM incidents
		WHERE guild_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get incidents for guild %s: %w", guildID, err)
	}
	return incidents, nil
}
