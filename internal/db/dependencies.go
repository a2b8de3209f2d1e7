package db

import "context"

type Client interface {
	Close() error
	GetSettings(ctx context.Context, guildID string) (*Settings, error)
	SetSettings(ctx context.Context, settings *Settings) error
	AddWarn(ctx context.Context, warn *Warn) (*Warn, error)
	GetWarns(ctx context.Context, guildID, userID string) ([]*Warn, error)
	AddIncident(ctx context.Context, incident *Incident) error
	GetIncidents(ctx context.Context, guildID string, limit int) ([]*Incident, error)
}
