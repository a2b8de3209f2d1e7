package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/wardenbot/warden/internal/db"
)

type service struct {
	session *discordgo.Session
	db      db.Client
}

func NewService(session *discordgo.Session, db db.Client) *service {
	return &service{
		session: session,
		db:      db,
	}
}

func (s *service) GetSession() *discordgo.Session {
	return s.session
}

func (s *service) GetDB() db.Client {
	return s.db
}
