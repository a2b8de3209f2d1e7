package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenbot/warden/internal/db"
)

// ServiceBot defines bot-specific operations
type ServiceBot interface {
	GetSession() *discordgo.Session
}

// ServiceDB defines database-specific operations
type ServiceDB interface {
	GetDB() db.Client
}

// Service defines the core bot service interface
type Service interface {
	ServiceBot
	ServiceDB
}

// Handler defines the interface for all message handlers in the system
type Handler interface {
	Handle(ctx context.Context, msg *discordgo.MessageCreate) (proceed bool, err error)
}
