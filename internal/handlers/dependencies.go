package handlers

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/db"
)

// settingsStore reads and writes per guild moderation rules.
type settingsStore interface {
	GetSettings(ctx context.Context, guildID string) (*db.Settings, error)
	SetSettings(ctx context.Context, settings *db.Settings) error
}

// warnStore persists moderator warnings.
type warnStore interface {
	AddWarn(ctx context.Context, warn *db.Warn) (*db.Warn, error)
	GetWarns(ctx context.Context, guildID, userID string) ([]*db.Warn, error)
}

// fetchSettings reads the guild rules, falling back to defaults when the
// guild was never configured or the store is unavailable. A store failure
// must never block moderation.
func fetchSettings(ctx context.Context, store settingsStore, guildID string) *db.Settings {
	settings, err := store.GetSettings(ctx, guildID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.WithField("error", err.Error()).Error("cant get settings, falling back to defaults")
		}
		return db.DefaultSettings(guildID)
	}
	return settings
}
