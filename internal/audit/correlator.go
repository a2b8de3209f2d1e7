// Package audit attributes destructive platform events to the responsible
// actor. Gateway events for role and channel destruction do not carry the
// executor, only the audit log does.
package audit

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type Kind string

const (
	KindRoleDelete    Kind = "role_delete"
	KindChannelDelete Kind = "channel_delete"
	KindRoleUpdate    Kind = "role_update"
	KindMemberBan     Kind = "member_ban"
)

// Entry is one audit log row. Actor is the executor's user object when the
// payload carries it, attribution works off ActorID alone when it does not.
type Entry struct {
	ActorID   string
	Actor     *discordgo.User
	Kind      Kind
	Timestamp time.Time
}

// Querier returns the guild's most recent audit entries, newest first.
type Querier interface {
	RecentAuditEntries(ctx context.Context, guildID string, limit int) ([]Entry, error)
}

type Correlator struct {
	querier  Querier
	lookback int
}

func NewCorrelator(querier Querier, lookback int) *Correlator {
	if lookback <= 0 {
		lookback = 25
	}
	return &Correlator{querier: querier, lookback: lookback}
}

// ResolveExecutor attributes a destructive action of the given kind to the
// first matching entry within the lookback and returns that entry.
// Attribution is positional and best effort: under heavy concurrent
// moderation the first match may belong to a different instance of the same
// action kind. A failed lookup or an empty match yields no actor, callers
// skip tracking for that event and move on.
func (c *Correlator) ResolveExecutor(ctx context.Context, guildID string, kind Kind) (Entry, bool) {
	entries, err := c.querier.RecentAuditEntries(ctx, guildID, c.lookback)
	if err != nil {
		c.getLogEntry().WithError(err).WithField("guild_id", guildID).Debug("audit lookup failed")
		return Entry{}, false
	}
	for _, entry := range entries {
		if entry.Kind == kind {
			return entry, true
		}
	}
	return Entry{}, false
}

func (c *Correlator) getLogEntry() *log.Entry {
	return log.WithField("object", "Correlator")
}
