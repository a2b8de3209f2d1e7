package db

import (
	werrors "github.com/wardenbot/warden/internal/errors"
)

var ErrNotFound = werrors.ErrNotFound

// DefaultSettings are what a guild gets until an operator stores anything:
// no banned words, up to 3 links per message, lockdown after 3 destructive
// actions within 10 seconds.
func DefaultSettings(guildID string) *Settings {
	return &Settings{
		GuildID:           guildID,
		BannedWords:       WordList{},
		MaxLinks:          3,
		AntiNukeThreshold: 3,
		AntiNukeWindowSec: 10,
	}
}
