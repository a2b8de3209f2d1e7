package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/automod"
	"github.com/wardenbot/warden/internal/bot"
	"github.com/wardenbot/warden/internal/config"
	"github.com/wardenbot/warden/internal/observability"
)

type automodOps interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SendMessage(ctx context.Context, channelID, text string) (*discordgo.Message, error)
}

// Automod removes messages that violate the guild's content rules before
// they reach command routing. Rules are read fresh on every message so
// operator edits apply immediately.
type Automod struct {
	ops    automodOps
	store  settingsStore
	config config.Config
}

func NewAutomod(s bot.Service, ops automodOps, cfg config.Config) *Automod {
	a := &Automod{
		ops:    ops,
		store:  s.GetDB(),
		config: cfg,
	}
	a.getLogEntry().Debug("created new automod")
	return a
}

func (a *Automod) Handle(ctx context.Context, msg *discordgo.MessageCreate) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if msg == nil || msg.Message == nil || msg.Author == nil {
		return true, nil
	}
	if msg.Author.Bot {
		return false, nil
	}
	if msg.GuildID == "" {
		return true, nil
	}
	if !a.config.AllowsGuild(msg.GuildID) {
		return false, nil
	}

	settings := fetchSettings(ctx, a.store, msg.GuildID)
	verdict := automod.Evaluate(automod.RuleSet{
		BannedWords: settings.BannedWords,
		MaxLinks:    settings.MaxLinks,
	}, msg.Content)
	if verdict.Allowed {
		observability.RecordVerdict("allowed")
		return true, nil
	}
	observability.RecordVerdict(string(verdict.Reason))

	entry := a.getLogEntry().WithFields(log.Fields{
		"guild_id": msg.GuildID,
		"user_id":  msg.Author.ID,
		"reason":   string(verdict.Reason),
	})
	if err := a.ops.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		entry.WithField("error", err.Error()).Error("cant delete message")
	}
	if _, err := a.ops.SendMessage(ctx, msg.ChannelID, removalNotice(msg.Author, verdict.Reason)); err != nil {
		entry.WithField("error", err.Error()).Error("cant send removal notice")
	}
	entry.Info("message removed")
	return false, nil
}

func removalNotice(author *discordgo.User, reason automod.Reason) string {
	if reason == automod.ReasonTooManyLinks {
		return fmt.Sprintf("%s — too many links in a single message.", author.Mention())
	}
	return fmt.Sprintf("%s — your message was removed (prohibited word).", author.Mention())
}

func (a *Automod) getLogEntry() *log.Entry {
	return log.WithField("object", "Automod")
}
