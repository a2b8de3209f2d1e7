package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/bot"
	"github.com/wardenbot/warden/internal/config"
	werrors "github.com/wardenbot/warden/internal/errors"
	"github.com/wardenbot/warden/internal/policy/permissions"
)

type adminOps interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SendMessage(ctx context.Context, channelID, text string) (*discordgo.Message, error)
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	KickMember(ctx context.Context, guildID, userID, reason string) error
	BanMember(ctx context.Context, guildID, userID, reason string) error
	UnbanMember(ctx context.Context, guildID, userID string) error
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)
	BulkDeleteMessages(ctx context.Context, channelID string, messageIDs []string) error
}

// Admin routes prefixed operator commands. Every command except modhelp is
// gated on the caller's effective channel permissions.
type Admin struct {
	s        bot.Service
	ops      adminOps
	settings settingsStore
	warns    warnStore
	config   config.Config

	resolvePerms func(userID, channelID string) (int64, error)
}

func NewAdmin(s bot.Service, ops adminOps, cfg config.Config) *Admin {
	a := &Admin{
		s:        s,
		ops:      ops,
		settings: s.GetDB(),
		warns:    s.GetDB(),
		config:   cfg,
	}
	a.resolvePerms = func(userID, channelID string) (int64, error) {
		return s.GetSession().UserChannelPermissions(userID, channelID)
	}
	a.getLogEntry().Debug("created new admin")
	return a
}

func (a *Admin) Handle(ctx context.Context, msg *discordgo.MessageCreate) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if msg == nil || msg.Message == nil || msg.Author == nil {
		return true, nil
	}
	if msg.Author.Bot || msg.GuildID == "" {
		return true, nil
	}
	if !a.config.AllowsGuild(msg.GuildID) {
		return false, nil
	}

	command, args, ok := parseCommand(a.config.CommandPrefix, msg.Content)
	if !ok {
		return true, nil
	}

	entry := a.getLogEntry().WithFields(log.Fields{
		"guild_id":  msg.GuildID,
		"user_id":   msg.Author.ID,
		"user_name": bot.GetFullName(msg.Author),
		"command":   command,
	})
	entry.Trace("command:", command)

	granted, err := a.resolvePerms(msg.Author.ID, msg.ChannelID)
	if err != nil {
		entry.WithField("error", err.Error()).Error("cant resolve member permissions")
		return false, nil
	}
	deny := func() (bool, error) {
		entry.WithError(werrors.ErrUnauthorized).Debug("command rejected")
		return false, nil
	}

	switch command {
	case "kick":
		if !permissions.CanKick(granted) {
			return deny()
		}
		return false, a.kickCommand(ctx, msg, args)
	case "ban":
		if !permissions.CanBan(granted) {
			return deny()
		}
		return false, a.banCommand(ctx, msg, args)
	case "unban":
		if !permissions.CanBan(granted) {
			return deny()
		}
		return false, a.unbanCommand(ctx, msg, args)
	case "purge":
		if !permissions.CanManageMessages(granted) {
			return deny()
		}
		return false, a.purgeCommand(ctx, msg, args)
	case "warn":
		if !permissions.CanManageMessages(granted) {
			return deny()
		}
		return false, a.warnCommand(ctx, msg, args)
	case "setbannedwords":
		if !permissions.CanManageRoles(granted) {
			return deny()
		}
		return false, a.setBannedWordsCommand(ctx, msg, args)
	case "setantithreshold":
		if !permissions.IsAdministrator(granted) {
			return deny()
		}
		return false, a.setAntiThresholdCommand(ctx, msg, args)
	case "modhelp":
		return false, a.modhelpCommand(ctx, msg)
	}

	entry.Trace("unknown command")
	return true, nil
}

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

func parseCommand(prefix, content string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func parseUserID(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	if m := mentionPattern.FindStringSubmatch(args[0]); m != nil {
		return m[1], true
	}
	if isSnowflake(args[0]) {
		return args[0], true
	}
	return "", false
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func commandReason(args []string) string {
	reason := strings.TrimSpace(strings.Join(args, " "))
	if reason == "" {
		return "No reason provided"
	}
	return reason
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("object", "Admin")
}
