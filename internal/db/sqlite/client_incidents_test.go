package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/wardenbot/warden/internal/db"
)

func TestIncidentsAppendAndListNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	now := time.Now().UTC()
	older := &db.Incident{
		ID:        "incident-older",
		GuildID:   "20001",
		ActorID:   "777",
		Pattern:   "4 destructive actions within 10s",
		Notified:  true,
		Banned:    true,
		CreatedAt: now.Add(-time.Minute),
	}
	newer := &db.Incident{
		ID:         "incident-newer",
		GuildID:    "20001",
		ActorID:    "888",
		Pattern:    "3 destructive actions within 10s",
		LockedDown: true,
		CreatedAt:  now,
	}
	other := &db.Incident{
		ID:        "incident-other-guild",
		GuildID:   "20002",
		ActorID:   "999",
		CreatedAt: now,
	}

	for _, incident := range []*db.Incident{older, newer, other} {
		if err := client.AddIncident(ctx, incident); err != nil {
			t.Fatalf("add incident %s: %v", incident.ID, err)
		}
	}

	got, err := client.GetIncidents(ctx, "20001", 10)
	if err != nil {
		t.Fatalf("get incidents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected incident count: %d", len(got))
	}
	if got[0].ID != "incident-newer" || got[1].ID != "incident-older" {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if !got[0].LockedDown || got[0].Banned {
		t.Fatalf("unexpected step flags: %#v", got[0])
	}

	limited, err := client.GetIncidents(ctx, "20001", 1)
	if err != nil {
		t.Fatalf("get incidents with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "incident-newer" {
		t.Fatalf("unexpected limited result: %#v", limited)
	}
}
