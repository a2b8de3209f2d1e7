// Package response contains the containment sequence that follows a
// threshold breach and the queue that feeds it. One breach means one pass
// through notify, ban, lockdown and record. Steps never retry, repeated
// breaches are harmless because the platform operations are idempotent for
// an already banned actor and an already locked role.
package response

import (
	"context"
	"fmt"
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/db"
	"github.com/wardenbot/warden/internal/observability"
)

const (
	StepNotify   = "notify"
	StepBan      = "ban"
	StepLockdown = "lockdown"
	StepRecord   = "record"
)

const (
	banReason      = "automated anti-abuse detection"
	lockdownReason = "automatic lockdown after suspected raid"
)

type Breach struct {
	GuildID   string
	ActorID   string
	ActorName string
	Kind      string
	Count     int
	Threshold int
	Window    time.Duration
	At        time.Time
}

// Pattern names the detected flood for announcements and records.
func (b Breach) Pattern() string {
	return fmt.Sprintf("high rate of %s (%d within %s)", kindLabel(b.Kind), b.Count, b.Window)
}

// actorLabel names the actor for the announcement. The mention is always
// present, the username rides in front when attribution resolved it.
func (b Breach) actorLabel() string {
	mention := "<@" + b.ActorID + ">"
	if b.ActorName == "" {
		return mention
	}
	return b.ActorName + " (" + mention + ")"
}

func kindLabel(kind string) string {
	switch kind {
	case "role_delete":
		return "role deletions"
	case "channel_delete":
		return "channel deletions"
	case "role_update":
		return "role updates"
	case "member_ban":
		return "member bans"
	default:
		return "destructive actions"
	}
}

type Outcome struct {
	Notified   bool
	Banned     bool
	LockedDown bool
	Recorded   bool
}

type platformOps interface {
	Announce(ctx context.Context, guildID, text string) error
	BanMember(ctx context.Context, guildID, userID, reason string) error
	RevokeEveryonePermissions(ctx context.Context, guildID, reason string) error
}

type incidentStore interface {
	AddIncident(ctx context.Context, incident *db.Incident) error
}

type Engine struct {
	ops         platformOps
	store       incidentStore
	stepTimeout time.Duration
}

func NewEngine(ops platformOps, store incidentStore, stepTimeout time.Duration) *Engine {
	if stepTimeout <= 0 {
		stepTimeout = 10 * time.Second
	}
	return &Engine{
		ops:         ops,
		store:       store,
		stepTimeout: stepTimeout,
	}
}

// Respond runs the containment sequence for one breach. Steps run in order,
// each attempted exactly once under its own timeout. A failed step is logged
// and the sequence moves on, the incident record always lands last carrying
// the per step outcome flags.
func (e *Engine) Respond(ctx context.Context, breach Breach) Outcome {
	ctx, span := observability.Tracer().Start(ctx, "response.respond")
	defer span.End()

	entry := e.getLogEntry().
		WithField("guild_id", breach.GuildID).
		WithField("actor_id", breach.ActorID).
		WithField("pattern", breach.Pattern())
	entry.Warn("threshold breach, starting containment")

	outcome := Outcome{}
	outcome.Notified = e.step(ctx, StepNotify, entry, func(stepCtx context.Context) error {
		text := fmt.Sprintf("Anti-nuke: %s detected from %s, taking action.",
			breach.Pattern(), breach.actorLabel())
		return e.ops.Announce(stepCtx, breach.GuildID, text)
	})
	outcome.Banned = e.step(ctx, StepBan, entry, func(stepCtx context.Context) error {
		return e.ops.BanMember(stepCtx, breach.GuildID, breach.ActorID, banReason)
	})
	outcome.LockedDown = e.step(ctx, StepLockdown, entry, func(stepCtx context.Context) error {
		return e.ops.RevokeEveryonePermissions(stepCtx, breach.GuildID, lockdownReason)
	})

	incident := &db.Incident{
		ID:         uuid.New(),
		GuildID:    breach.GuildID,
		ActorID:    breach.ActorID,
		Pattern:    breach.Pattern(),
		Notified:   outcome.Notified,
		Banned:     outcome.Banned,
		LockedDown: outcome.LockedDown,
		CreatedAt:  time.Now().UTC(),
	}
	outcome.Recorded = e.step(ctx, StepRecord, entry, func(stepCtx context.Context) error {
		return e.store.AddIncident(stepCtx, incident)
	})

	entry.WithField("incident_id", incident.ID).
		WithField("notified", outcome.Notified).
		WithField("banned", outcome.Banned).
		WithField("locked_down", outcome.LockedDown).
		WithField("recorded", outcome.Recorded).
		Info("containment finished")
	return outcome
}

func (e *Engine) step(ctx context.Context, step string, entry *log.Entry, fn func(context.Context) error) bool {
	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	stepCtx, span := observability.Tracer().Start(stepCtx, "response."+step)
	defer span.End()

	finish := observability.StartResponseStep(step)
	if err := fn(stepCtx); err != nil {
		span.RecordError(err)
		finish("failure")
		entry.WithError(err).WithField("step", step).Error("response step failed")
		return false
	}
	finish("success")
	return true
}

func (e *Engine) getLogEntry() *log.Entry {
	return log.WithField("object", "ResponseEngine")
}
