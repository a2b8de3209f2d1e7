package handlers

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/audit"
	"github.com/wardenbot/warden/internal/bot"
	"github.com/wardenbot/warden/internal/config"
	werrors "github.com/wardenbot/warden/internal/errors"
	"github.com/wardenbot/warden/internal/infra"
	"github.com/wardenbot/warden/internal/observability"
	"github.com/wardenbot/warden/internal/response"
	"github.com/wardenbot/warden/internal/tracker"
)

// Bounds the audit lookup and settings read for one gateway event.
const guardEventTimeout = 10 * time.Second

type executorResolver interface {
	ResolveExecutor(ctx context.Context, guildID string, kind audit.Kind) (audit.Entry, bool)
}

type breachSink interface {
	Enqueue(breach response.Breach) error
}

// Guard watches destructive guild events, attributes each one to an actor
// through the audit log and records it in the sliding window. When an
// actor's count reaches the guild's threshold the breach is handed to the
// response queue. Events that cannot be attributed are skipped, one bad
// event never blocks the next.
type Guard struct {
	s        bot.Service
	tracker  *tracker.Tracker
	resolver executorResolver
	sink     breachSink
	store    settingsStore
	config   config.Config
}

func NewGuard(s bot.Service, trk *tracker.Tracker, resolver executorResolver, sink breachSink, cfg config.Config) *Guard {
	g := &Guard{
		s:        s,
		tracker:  trk,
		resolver: resolver,
		sink:     sink,
		store:    s.GetDB(),
		config:   cfg,
	}
	g.getLogEntry().Debug("created new guard")
	return g
}

func (g *Guard) HandleRoleDelete(_ *discordgo.Session, e *discordgo.GuildRoleDelete) {
	if e == nil || e.GuildID == "" {
		g.reject(string(audit.KindRoleDelete))
		return
	}
	g.process(e.GuildID, audit.KindRoleDelete)
}

func (g *Guard) HandleChannelDelete(_ *discordgo.Session, e *discordgo.ChannelDelete) {
	if e == nil || e.Channel == nil {
		g.reject(string(audit.KindChannelDelete))
		return
	}
	g.process(e.GuildID, audit.KindChannelDelete)
}

func (g *Guard) HandleRoleUpdate(_ *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	if e == nil || e.GuildRole == nil || e.Role == nil || e.GuildID == "" {
		g.reject(string(audit.KindRoleUpdate))
		return
	}
	g.process(e.GuildID, audit.KindRoleUpdate)
}

func (g *Guard) HandleBanAdd(_ *discordgo.Session, e *discordgo.GuildBanAdd) {
	if e == nil || e.User == nil || e.GuildID == "" {
		g.reject(string(audit.KindMemberBan))
		return
	}
	g.process(e.GuildID, audit.KindMemberBan)
}

// process runs the pipeline behind a recover guard. A panic below drops
// this one event, never the dispatch goroutine discordgo runs the handler
// on.
func (g *Guard) process(guildID string, kind audit.Kind) {
	infra.Recoverable("guard_"+string(kind), func() {
		g.track(guildID, kind)
	})
}

func (g *Guard) track(guildID string, kind audit.Kind) {
	entry := g.getLogEntry().WithFields(log.Fields{
		"guild_id": guildID,
		"kind":     string(kind),
	})
	if guildID == "" {
		// Channel deletes outside a guild are direct message cleanups.
		entry.Trace("event without guild")
		return
	}
	if !g.config.AllowsGuild(guildID) {
		return
	}
	observability.RecordDestructiveEvent(string(kind))

	ctx, cancel := context.WithTimeout(context.Background(), guardEventTimeout)
	defer cancel()

	matched, ok := g.resolver.ResolveExecutor(ctx, guildID, kind)
	if !ok {
		entry.Debug("no attribution, skipping")
		return
	}
	if g.isSelf(matched.ActorID) {
		entry.Trace("own action, skipping")
		return
	}

	settings := fetchSettings(ctx, g.store, guildID)
	window := settings.Window()
	count := g.tracker.Record(guildID, matched.ActorID, time.Now().UTC(), window)
	observability.SetTrackedWindows(g.tracker.Size())

	if count < settings.AntiNukeThreshold {
		return
	}

	observability.RecordBreach()
	breach := response.Breach{
		GuildID:   guildID,
		ActorID:   matched.ActorID,
		ActorName: bot.GetUN(matched.Actor),
		Kind:      string(kind),
		Count:     count,
		Threshold: settings.AntiNukeThreshold,
		Window:    window,
		At:        time.Now().UTC(),
	}
	if err := g.sink.Enqueue(breach); err != nil {
		entry.WithField("error", err.Error()).Error("cant enqueue breach")
		return
	}
	entry.WithFields(log.Fields{
		"actor_id": matched.ActorID,
		"count":    count,
	}).Warn("destructive action threshold breached")
}

func (g *Guard) isSelf(userID string) bool {
	session := g.s.GetSession()
	if session == nil || session.State == nil || session.State.User == nil {
		return false
	}
	return session.State.User.ID == userID
}

func (g *Guard) reject(kind string) {
	observability.RecordMalformedEvent()
	g.getLogEntry().WithError(werrors.ErrMalformedEvent).WithField("kind", kind).Warn("dropping event")
}

func (g *Guard) getLogEntry() *log.Entry {
	return log.WithField("object", "Guard")
}
