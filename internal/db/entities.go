package db

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

type (
	// Settings holds the per guild moderation knobs. Reads always go to the
	// store, callers never hold on to a stale copy.
	Settings struct {
		GuildID           string    `db:"guild_id"`
		BannedWords       WordList  `db:"banned_words"`
		MaxLinks          int       `db:"max_links"`
		AntiNukeThreshold int       `db:"anti_nuke_threshold"`
		AntiNukeWindowSec int64     `db:"anti_nuke_window_sec"`
		UpdatedAt         time.Time `db:"updated_at"`
	}

	Warn struct {
		ID          int64     `db:"id"`
		GuildID     string    `db:"guild_id"`
		UserID      string    `db:"user_id"`
		ModeratorID string    `db:"moderator_id"`
		Reason      string    `db:"reason"`
		CreatedAt   time.Time `db:"created_at"`
	}

	// Incident is the append only record of one detection and the outcome of
	// each response step. Rows are never updated after insert.
	Incident struct {
		ID         string    `db:"id"`
		GuildID    string    `db:"guild_id"`
		ActorID    string    `db:"actor_id"`
		Pattern    string    `db:"pattern"`
		Notified   bool      `db:"notified"`
		Banned     bool      `db:"banned"`
		LockedDown bool      `db:"locked_down"`
		CreatedAt  time.Time `db:"created_at"`
	}

	WordList []string
)

func (w WordList) Value() (driver.Value, error) {
	return strings.Join(w, ","), nil
}

func (w *WordList) Scan(v interface{}) error {
	switch data := v.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		*w = ParseWordList(data)
		return nil
	case []byte:
		*w = ParseWordList(string(data))
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into WordList", v)
	}
}

// ParseWordList normalizes a comma separated list: entries are trimmed and
// lowercased, blank entries are dropped.
func ParseWordList(raw string) WordList {
	parts := strings.Split(raw, ",")
	words := make(WordList, 0, len(parts))
	for _, part := range parts {
		word := strings.ToLower(strings.TrimSpace(part))
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return words
}

// Window returns the anti nuke sliding window as a duration.
func (s *Settings) Window() time.Duration {
	return time.Duration(s.AntiNukeWindowSec) * time.Second
}
