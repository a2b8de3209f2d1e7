package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/wardenbot/warden/internal/db"
)

const (
	purgeDefaultCount   = 10
	purgeMaxCount       = 100
	purgeConfirmTimeout = 5 * time.Second
)

func (a *Admin) kickCommand(ctx context.Context, msg *discordgo.MessageCreate, args []string) error {
	targetID, ok := parseUserID(args)
	if !ok {
		return a.usage(ctx, msg, "kick @member [reason]")
	}
	reason := commandReason(args[1:])
	if err := a.ops.KickMember(ctx, msg.GuildID, targetID, reason); err != nil {
		return errors.Wrap(err, "failed to kick member")
	}
	a.reply(ctx, msg.ChannelID, fmt.Sprintf("<@%s> has been kicked. Reason: %s", targetID, reason))
	return nil
}

func (a *Admin) banCommand(ctx context.Context, msg *discordgo.MessageCreate, args []string) error {
	targetID, ok := parseUserID(args)
	if !ok {
		return a.usage(ctx, msg, "ban @member [reason]")
	}
	reason := commandReason(args[1:])
	if err := a.ops.BanMember(ctx, msg.GuildID, targetID, reason); err != nil {
		return errors.Wrap(err, "failed to ban member")
	}
	a.reply(ctx, msg.ChannelID, fmt.Sprintf("<@%s> has been banned. Reason: %s", targetID, reason))
	return nil
}

func (a *Admin) unbanCommand(ctx context.Context, msg *discordgo.MessageCreate, args []string) error {
	targetID, ok := parseUserID(args)
	if !ok {
		return a.usage(ctx, msg, "unban <user id>")
	}
	if err := a.ops.UnbanMember(ctx, msg.GuildID, targetID); err != nil {
		a.reply(ctx, msg.ChannelID, fmt.Sprintf("Failed to unban: %v", err))
		return nil
	}
	a.reply(ctx, msg.ChannelID, fmt.Sprintf("Unbanned <@%s>", targetID))
	return nil
}

func (a *Admin) purgeCommand(ctx context.Context, msg *discordgo.MessageCreate, args []string) error {
	count := purgeDefaultCount
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return a.usage(ctx, msg, "purge [count]")
		}
		count = parsed
	}
	if count > purgeMaxCount {
		count = purgeMaxCount
	}

	// The invoking message is the newest in the channel, so it is part of
	// the purged batch.
	messages, err := a.ops.RecentMessages(ctx, msg.ChannelID, count)
	if err != nil {
		return errors.Wrap(err, "failed to list messages")
	}
	messageIDs := make([]string, 0, len(messages))
	for _, message := range messages {
		messageIDs = append(messageIDs, message.ID)
	}
	if len(messageIDs) > 0 {
		if err := a.ops.BulkDeleteMessages(ctx, msg.ChannelID, messageIDs); err != nil {
			return errors.Wrap(err, "failed to bulk delete messages")
		}
	}

	confirmation, err := a.ops.SendMessage(ctx, msg.ChannelID, fmt.Sprintf("Deleted %d messages.", len(messageIDs)))
	if err != nil {
		a.getLogEntry().WithField("error", err.Error()).Warn("cant send reply")
		return nil
	}
	if confirmation != nil {
		// The cleanup fires after the command returns, it must not ride on
		// the command's context.
		time.AfterFunc(purgeConfirmTimeout, func() {
			_ = a.ops.DeleteMessage(context.WithoutCancel(ctx), msg.ChannelID, confirmation.ID)
		})
	}
	return nil
}

func (a *Admin) warnCommand(ctx context.Context, msg *discordgo.MessageCreate, args []string) error {
	targetID, ok := parseUserID(args)
	if !ok {
		return a.usage(ctx, msg, "warn @member [reason]")
	}
	reason := commandReason(args[1:])
	warn := &db.Warn{
		GuildID:     msg.GuildID,
		UserID:      targetID,
		ModeratorID: msg.Author.ID,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := a.warns.AddWarn(ctx, warn); err != nil {
		return errors.Wrap(err, "failed to add warn")
	}
	warns, err := a.warns.GetWarns(ctx, msg.GuildID, targetID)
	if err != nil {
		return errors.Wrap(err, "failed to count warns")
	}
	a.reply(ctx, msg.ChannelID,
		fmt.Sprintf("<@%s> has been warned (warning #%d). Reason: %s", targetID, len(warns), reason))
	return nil
}

func (a *Admin) setBannedWordsCommand(ctx context.Context, msg *discordgo.MessageCreate, args []string) error {
	words := db.ParseWordList(strings.Join(args, " "))
	if len(words) == 0 {
		return a.usage(ctx, msg, "setbannedwords word1,word2,word3")
	}

	settings := fetchSettings(ctx, a.settings, msg.GuildID)
	settings.BannedWords = words
	settings.UpdatedAt = time.Now().UTC()
	if err := a.settings.SetSettings(ctx, settings); err != nil {
		return errors.Wrap(err, "failed to save banned words")
	}
	a.reply(ctx, msg.ChannelID, fmt.Sprintf("Saved banned words: %s", strings.Join(words, ", ")))
	return nil
}

func (a *Admin) setAntiThresholdCommand(ctx context.Context, msg *discordgo.MessageCreate, args []string) error {
	threshold, windowSeconds := 3, 10
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return a.usage(ctx, msg, "setantithreshold <count> <seconds>")
		}
		threshold = parsed
	}
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < 1 {
			return a.usage(ctx, msg, "setantithreshold <count> <seconds>")
		}
		windowSeconds = parsed
	}

	settings := fetchSettings(ctx, a.settings, msg.GuildID)
	settings.AntiNukeThreshold = threshold
	settings.AntiNukeWindowSec = int64(windowSeconds)
	settings.UpdatedAt = time.Now().UTC()
	if err := a.settings.SetSettings(ctx, settings); err != nil {
		return errors.Wrap(err, "failed to save anti-nuke params")
	}
	a.reply(ctx, msg.ChannelID,
		fmt.Sprintf("Anti-nuke threshold set to %d actions in %d seconds.", threshold, windowSeconds))
	return nil
}

func (a *Admin) modhelpCommand(ctx context.Context, msg *discordgo.MessageCreate) error {
	prefix := a.config.CommandPrefix
	embed := &discordgo.MessageEmbed{
		Title: "Warden Commands",
		Color: 0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: prefix + "kick @member [reason]", Value: "Kick a member"},
			{Name: prefix + "ban @member [reason]", Value: "Ban a member"},
			{Name: prefix + "unban <user id>", Value: "Lift a ban"},
			{Name: prefix + "purge [count]", Value: "Delete messages"},
			{Name: prefix + "warn @member [reason]", Value: "Warn a member"},
			{Name: prefix + "setbannedwords a,b,c", Value: "Set banned words (comma separated)"},
			{Name: prefix + "setantithreshold <count> <seconds>", Value: "Set anti-nuke sensitivity"},
		},
	}
	if _, err := a.ops.SendEmbed(ctx, msg.ChannelID, embed); err != nil {
		return errors.Wrap(err, "failed to send help")
	}
	return nil
}

func (a *Admin) usage(ctx context.Context, msg *discordgo.MessageCreate, text string) error {
	a.reply(ctx, msg.ChannelID, "Usage: "+a.config.CommandPrefix+text)
	return nil
}

// reply posts a command response. A failed send is logged and never fails
// the command that produced it.
func (a *Admin) reply(ctx context.Context, channelID, text string) {
	if _, err := a.ops.SendMessage(ctx, channelID, text); err != nil {
		a.getLogEntry().WithField("error", err.Error()).Warn("cant send reply")
	}
}
