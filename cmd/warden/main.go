package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/audit"
	"github.com/wardenbot/warden/internal/bot"
	"github.com/wardenbot/warden/internal/config"
	"github.com/wardenbot/warden/internal/db/sqlite"
	"github.com/wardenbot/warden/internal/handlers"
	"github.com/wardenbot/warden/internal/infra"
	"github.com/wardenbot/warden/internal/infrastructure/discord"
	"github.com/wardenbot/warden/internal/lifecycle"
	"github.com/wardenbot/warden/internal/observability"
	"github.com/wardenbot/warden/internal/response"
	"github.com/wardenbot/warden/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err.Error()).Errorln("cant load config")
		time.Sleep(1 * time.Second)
		log.Fatalln("exiting")
	}
	log.SetFormatter(&config.WdFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Errorln("cant run warden")
		time.Sleep(1 * time.Second)
		log.Fatalln("exiting")
	}
	os.Exit(0)
}

func run(ctx context.Context, cfg config.Config) error {
	dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), "warden.db")
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.WithError(err).Errorln("cant close database")
		}
	}()

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return errors.Wrap(err, "failed to initialize session")
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildModeration |
		discordgo.IntentMessageContent
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		session.LogLevel = discordgo.LogDebug
	}

	ops := discord.NewOperations(session)
	service := bot.NewService(session, dbClient)

	bot.RegisterMessageHandler("automod", handlers.NewAutomod(service, ops, cfg))
	bot.RegisterMessageHandler("admin", handlers.NewAdmin(service, ops, cfg))
	processor := bot.NewMessageProcessor(service)

	trk := tracker.New()
	pruner := tracker.NewPruner(trk, cfg.AntiNuke.PruneInterval, cfg.AntiNuke.PruneCeiling)
	correlator := audit.NewCorrelator(ops, cfg.AntiNuke.AuditLookback)
	engine := response.NewEngine(ops, dbClient, cfg.Response.StepTimeout)
	queue := response.NewQueue(engine, cfg.Response.Workers, cfg.Response.QueueSize)
	guard := handlers.NewGuard(service, trk, correlator, queue, cfg)

	session.AddHandler(func(_ *discordgo.Session, msg *discordgo.MessageCreate) {
		infra.Recoverable("process_message", func() {
			if err := processor.Process(ctx, msg); err != nil {
				log.WithError(err).Errorln("cant process message")
			}
		})
	})
	session.AddHandler(guard.HandleRoleDelete)
	session.AddHandler(guard.HandleChannelDelete)
	session.AddHandler(guard.HandleRoleUpdate)
	session.AddHandler(guard.HandleBanAdd)

	runtime := lifecycle.NewRuntime(
		pruner,
		queue,
		observability.NewServer(cfg.MetricsAddr),
	)
	if err := runtime.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start runtime")
	}

	if err := session.Open(); err != nil {
		stopRuntime(runtime)
		return errors.Wrap(err, "failed to open gateway")
	}
	log.Infoln("warden is online")

	modified := infra.MonitorExecutable(ctx)
	select {
	case <-ctx.Done():
		log.Infoln("shutdown signal received")
	case _, ok := <-modified:
		if ok {
			log.Errorln("executable file was modified")
		}
	}

	if err := session.Close(); err != nil {
		log.WithError(err).Errorln("cant close session")
	}
	stopRuntime(runtime)
	return nil
}

// stopRuntime drains the queue workers and the pruner under a fresh
// deadline, the signal context is already done by the time we get here.
func stopRuntime(runtime *lifecycle.Runtime) {
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := runtime.Stop(stopCtx); err != nil {
		log.WithError(err).Errorln("cant stop runtime")
	}
}
