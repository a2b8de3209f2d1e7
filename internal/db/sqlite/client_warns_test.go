package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/wardenbot/warden/internal/db"
)

func TestWarnsAppendPerUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	now := time.Now().UTC()
	first := &db.Warn{
		GuildID:     "30001",
		UserID:      "555",
		ModeratorID: "111",
		Reason:      "spamming invites",
		CreatedAt:   now.Add(-time.Hour),
	}
	second := &db.Warn{
		GuildID:     "30001",
		UserID:      "555",
		ModeratorID: "222",
		Reason:      "repeat offense",
		CreatedAt:   now,
	}
	unrelated := &db.Warn{
		GuildID:     "30001",
		UserID:      "556",
		ModeratorID: "111",
		Reason:      "off topic",
		CreatedAt:   now,
	}

	for _, warn := range []*db.Warn{first, second, unrelated} {
		stored, err := client.AddWarn(ctx, warn)
		if err != nil {
			t.Fatalf("add warn: %v", err)
		}
		if stored.ID == 0 {
			t.Fatalf("expected assigned warn id, got %#v", stored)
		}
	}

	got, err := client.GetWarns(ctx, "30001", "555")
	if err != nil {
		t.Fatalf("get warns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected warn count: %d", len(got))
	}
	if got[0].Reason != "spamming invites" || got[1].Reason != "repeat offense" {
		t.Fatalf("unexpected warn order: %#v", got)
	}
}
