package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/wardenbot/warden/internal/audit"
)

const bulkDeleteConcurrency = 4

// Operations provides common Discord guild operations
type Operations struct {
	session *discordgo.Session
}

// NewOperations creates a new Operations instance
func NewOperations(session *discordgo.Session) *Operations {
	return &Operations{session: session}
}

// DeleteMessage deletes a message from a channel
func (o *Operations) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := o.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendMessage posts a plain text message to a channel
func (o *Operations) SendMessage(ctx context.Context, channelID, text string) (*discordgo.Message, error) {
	msg, err := o.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// SendEmbed posts an embed to a channel
func (o *Operations) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	msg, err := o.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send embed: %w", err)
	}
	return msg, nil
}

// Announce posts to the guild's system channel
func (o *Operations) Announce(ctx context.Context, guildID, text string) error {
	guild, err := o.guild(guildID)
	if err != nil {
		return fmt.Errorf("failed to resolve guild: %w", err)
	}
	if guild.SystemChannelID == "" {
		return fmt.Errorf("guild %s has no system channel", guildID)
	}
	if _, err := o.session.ChannelMessageSend(guild.SystemChannelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to announce: %w", err)
	}
	return nil
}

// BanMember bans a user from a guild with an audit reason, keeping their messages
func (o *Operations) BanMember(ctx context.Context, guildID, userID, reason string) error {
	if err := o.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	return nil
}

// UnbanMember removes a guild ban
func (o *Operations) UnbanMember(ctx context.Context, guildID, userID string) error {
	if err := o.session.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	return nil
}

// KickMember removes a user from a guild with an audit reason
func (o *Operations) KickMember(ctx context.Context, guildID, userID, reason string) error {
	if err := o.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to kick user: %w", err)
	}
	return nil
}

// RevokeEveryonePermissions zeroes all permissions on the guild's base role.
// The base role shares the guild's ID.
func (o *Operations) RevokeEveryonePermissions(ctx context.Context, guildID, reason string) error {
	var permissions int64
	_, err := o.session.GuildRoleEdit(guildID, guildID,
		&discordgo.RoleParams{Permissions: &permissions},
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke base role permissions: %w", err)
	}
	return nil
}

// RecentMessages lists up to limit latest messages of a channel
func (o *Operations) RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	messages, err := o.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// BulkDeleteMessages deletes a batch of messages from a channel. The bulk
// endpoint rejects messages older than two weeks, on failure the batch is
// retried message by message.
func (o *Operations) BulkDeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := o.session.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx)); err == nil {
		return nil
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(bulkDeleteConcurrency)
	for _, messageID := range messageIDs {
		eg.Go(func() error {
			return o.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(egCtx))
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

// RecentAuditEntries returns the guild's latest audit entries, newest first.
// Entries whose action type is not tracked are skipped, entry timestamps are
// derived from the entry snowflake. The executor user objects ride along in
// the audit payload and are joined onto their entries.
func (o *Operations) RecentAuditEntries(ctx context.Context, guildID string, limit int) ([]audit.Entry, error) {
	auditLog, err := o.session.GuildAuditLog(guildID, "", "", 0, limit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit log: %w", err)
	}

	users := make(map[string]*discordgo.User, len(auditLog.Users))
	for _, user := range auditLog.Users {
		if user != nil {
			users[user.ID] = user
		}
	}

	entries := make([]audit.Entry, 0, len(auditLog.AuditLogEntries))
	for _, raw := range auditLog.AuditLogEntries {
		if raw == nil || raw.ActionType == nil {
			continue
		}
		kind, ok := kindForAction(*raw.ActionType)
		if !ok {
			continue
		}
		timestamp, _ := discordgo.SnowflakeTimestamp(raw.ID)
		entries = append(entries, audit.Entry{
			ActorID:   raw.UserID,
			Actor:     users[raw.UserID],
			Kind:      kind,
			Timestamp: timestamp,
		})
	}
	return entries, nil
}

func kindForAction(action discordgo.AuditLogAction) (audit.Kind, bool) {
	switch action {
	case discordgo.AuditLogActionChannelDelete:
		return audit.KindChannelDelete, true
	case discordgo.AuditLogActionMemberBanAdd:
		return audit.KindMemberBan, true
	case discordgo.AuditLogActionRoleUpdate:
		return audit.KindRoleUpdate, true
	case discordgo.AuditLogActionRoleDelete:
		return audit.KindRoleDelete, true
	default:
		return "", false
	}
}

func (o *Operations) guild(guildID string) (*discordgo.Guild, error) {
	if guild, err := o.session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	return o.session.Guild(guildID)
}
