package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

type fakeHandler struct {
	name    string
	proceed bool
	err     error
	calls   *[]string
}

func (f *fakeHandler) Handle(_ context.Context, _ *discordgo.MessageCreate) (bool, error) {
	*f.calls = append(*f.calls, f.name)
	return f.proceed, f.err
}

func freshMessage() *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "100",
			Timestamp: time.Now(),
		},
	}
}

func TestProcessRunsHandlersUntilOneStops(t *testing.T) {
	t.Parallel()

	var calls []string
	mp := &MessageProcessor{
		messageHandlers: []Handler{
			&fakeHandler{name: "first", proceed: true, calls: &calls},
			&fakeHandler{name: "second", proceed: false, calls: &calls},
			&fakeHandler{name: "third", proceed: true, calls: &calls},
		},
	}

	if err := mp.Process(context.Background(), freshMessage()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected handler calls: %v", calls)
	}
}

func TestProcessPropagatesHandlerError(t *testing.T) {
	t.Parallel()

	var calls []string
	boom := errors.New("boom")
	mp := &MessageProcessor{
		messageHandlers: []Handler{
			&fakeHandler{name: "first", proceed: true, err: boom, calls: &calls},
			&fakeHandler{name: "second", proceed: true, calls: &calls},
		},
	}

	err := mp.Process(context.Background(), freshMessage())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("later handlers should not run after an error, calls: %v", calls)
	}
}

func TestProcessRejectsNilMessage(t *testing.T) {
	t.Parallel()

	mp := &MessageProcessor{}
	if err := mp.Process(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil message")
	}
	if err := mp.Process(context.Background(), &discordgo.MessageCreate{}); err == nil {
		t.Fatal("expected error for message without payload")
	}
}

func TestProcessSkipsOutdatedMessages(t *testing.T) {
	t.Parallel()

	var calls []string
	mp := &MessageProcessor{
		messageHandlers: []Handler{
			&fakeHandler{name: "first", proceed: true, calls: &calls},
		},
	}

	stale := freshMessage()
	stale.Timestamp = time.Now().Add(-MessageTimeout - time.Minute)

	if err := mp.Process(context.Background(), stale); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("outdated message should not reach handlers, calls: %v", calls)
	}
}

func TestUserNameHelpers(t *testing.T) {
	t.Parallel()

	if got := GetUN(nil); got != "" {
		t.Fatalf("nil user should yield empty name, got %q", got)
	}
	if got := GetUN(&discordgo.User{Username: "mod", GlobalName: "Moderator"}); got != "mod" {
		t.Fatalf("unexpected username: %q", got)
	}
	if got := GetUN(&discordgo.User{GlobalName: " Moderator "}); got != "Moderator" {
		t.Fatalf("unexpected fallback name: %q", got)
	}
	if got := GetFullName(&discordgo.User{Username: "mod"}); got != "mod" {
		t.Fatalf("unexpected full name fallback: %q", got)
	}
	if got := GetFullName(&discordgo.User{Username: "mod", GlobalName: "Moderator"}); got != "Moderator" {
		t.Fatalf("unexpected full name: %q", got)
	}
}
