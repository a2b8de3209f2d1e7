package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		DiscordToken    string   `env:"TOKEN,required"`
		CommandPrefix   string   `env:"COMMAND_PREFIX,default=!"`
		GuildAllowlist  []string `env:"GUILD_ALLOWLIST"`
		EnabledHandlers []string `env:"ENABLED_HANDLERS,default=automod,admin"`
		LogLevel        int      `env:"LOG_LEVEL,default=2"`
		DotPath         string   `env:"DOT_PATH,default=~/.warden"`
		MetricsAddr     string   `env:"METRICS_ADDR,default=:2112"`
		AntiNuke        AntiNuke
		Response        Response
	}

	AntiNuke struct {
		PruneInterval time.Duration `env:"ANTINUKE_PRUNE_INTERVAL,default=3s"`
		PruneCeiling  time.Duration `env:"ANTINUKE_PRUNE_CEILING,default=5m"`
		AuditLookback int           `env:"ANTINUKE_AUDIT_LOOKBACK,default=25"`
	}

	Response struct {
		Workers     int           `env:"RESPONSE_WORKERS,default=4"`
		QueueSize   int           `env:"RESPONSE_QUEUE_SIZE,default=64"`
		StepTimeout time.Duration `env:"RESPONSE_STEP_TIMEOUT,default=10s"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("WDN_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			globalErr = fmt.Errorf("get user home directory: %w", err)
			return
		}
		cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

// AllowsGuild reports whether the guild may be served. An empty allowlist
// admits every guild.
func (c Config) AllowsGuild(guildID string) bool {
	if len(c.GuildAllowlist) == 0 {
		return true
	}
	for _, id := range c.GuildAllowlist {
		if strings.TrimSpace(id) == guildID {
			return true
		}
	}
	return false
}
