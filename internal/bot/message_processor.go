package bot

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/config"
)

const (
	MessageTimeout = 5 * time.Minute
)

type MessageProcessor struct {
	s               Service
	messageHandlers []Handler
}

var registeredHandlers = make(map[string]Handler)

func RegisterMessageHandler(title string, handler Handler) {
	registeredHandlers[title] = handler
}

func NewMessageProcessor(s Service) *MessageProcessor {
	enabledHandlers := make([]Handler, 0)
	for _, handlerName := range config.Get().EnabledHandlers {
		if _, ok := registeredHandlers[handlerName]; !ok || registeredHandlers[handlerName] == nil {
			log.Warnf("no registered handler: %s", handlerName)
			continue
		}
		enabledHandlers = append(enabledHandlers, registeredHandlers[handlerName])
	}

	return &MessageProcessor{
		s:               s,
		messageHandlers: enabledHandlers,
	}
}

func (mp *MessageProcessor) Process(ctx context.Context, msg *discordgo.MessageCreate) error {
	if msg == nil || msg.Message == nil {
		return errors.New("message is nil")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !msg.Timestamp.IsZero() && time.Since(msg.Timestamp) > MessageTimeout {
		log.WithFields(log.Fields{
			"message_time": msg.Timestamp,
			"age":          time.Since(msg.Timestamp),
		}).Debug("Skipping outdated message")
		return nil
	}

	for _, handler := range mp.messageHandlers {
		if handler == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			proceed, err := handler.Handle(ctx, msg)
			if err != nil {
				return errors.WithMessage(err, "handling error")
			}
			if !proceed {
				log.Trace("not proceeding")
				return nil
			}
		}
	}
	return nil
}

func GetUN(user *discordgo.User) string {
	if user == nil {
		return ""
	}
	userName := user.Username
	if len(userName) == 0 {
		userName = strings.TrimSpace(user.GlobalName)
	}
	return userName
}

func GetFullName(user *discordgo.User) string {
	if user == nil {
		return ""
	}
	fullName := strings.TrimSpace(user.GlobalName)
	if len(fullName) == 0 {
		fullName = user.Username
	}
	return fullName
}
