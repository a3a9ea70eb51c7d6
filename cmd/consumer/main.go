package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v6"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/container"
	"github.com/serroba/shortlink/internal/messaging"
	"go.uber.org/zap"
)

// config is read from the environment only; the consumer has no flags.
type config struct {
	LogFormat      string `env:"LOG_FORMAT"       envDefault:"console"`
	RedisAddr      string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	Store          string `env:"STORE"            envDefault:"redis"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"shortlink:"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
	CacheTTL       int    `env:"CACHE_TTL"        envDefault:"300"`
	LinkTTL        int    `env:"LINK_TTL"         envDefault:"31536000"`
	ConsumerGroup  string `env:"CONSUMER_GROUP"   envDefault:"shortlink"`
}

func (c config) options() *container.Options {
	return &container.Options{
		LogFormat:      c.LogFormat,
		RedisAddr:      c.RedisAddr,
		Store:          c.Store,
		RedisKeyPrefix: c.RedisKeyPrefix,
		PostgresDSN:    c.PostgresDSN,
		CacheTTL:       c.CacheTTL,
		LinkTTL:        c.LinkTTL,
		ConsumerGroup:  c.ConsumerGroup,
	}
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	injector := do.New()
	do.ProvideValue(injector, cfg.options())
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StorePackage(injector)
	container.ShortenerPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	if cfg.Store == container.StoreMemory {
		logger.Warn("memory store is private to each process, repairs will not reach the server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Run(ctx); err != nil {
		logger.Error("consumer group stopped", zap.Error(err))
	}

	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
