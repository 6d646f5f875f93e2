package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oggyb/intro-match/internal/app"
	"github.com/oggyb/intro-match/internal/cache"
	"github.com/oggyb/intro-match/internal/config"
	"github.com/oggyb/intro-match/internal/db"
	"github.com/oggyb/intro-match/internal/engine"
	"github.com/oggyb/intro-match/internal/events"
	"github.com/oggyb/intro-match/internal/logger"
	"github.com/oggyb/intro-match/internal/repository"
	"github.com/oggyb/intro-match/internal/server"
	"github.com/oggyb/intro-match/internal/service/swipe"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	defer logger.Close()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return 1
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return 1
	}
	defer redisCache.Close()

	opts := []engine.Option{
		engine.WithPairLocker(cache.NewPairLocker(redisCache, cfg.Engine.LockTTL, cfg.Engine.LockAttempts)),
		engine.WithCountInvalidator(redisCache),
		engine.WithDefaultLimit(cfg.Engine.DefaultLimit),
		engine.WithOversampleFactor(cfg.Engine.OversampleFactor),
		engine.WithTxAttempts(cfg.Engine.TxAttempts),
	}

	if cfg.Kafka.Enabled {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer producer.Close()
		opts = append(opts, engine.WithNotifier(producer))
		log.Info("publishing match events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	eng := engine.New(repository.NewStore(database), log, opts...)
	appCtx := app.New(database, redisCache, log, eng)

	registrars := []server.Registrar{
		swipe.NewRegistrar(appCtx),
	}

	grpcLis, httpLis, err := server.Listen(cfg)
	if err != nil {
		log.Error("failed to listen", "err", err)
		return 1
	}

	if err := server.NewServer(log, registrars...).Run(ctx, grpcLis, httpLis); err != nil {
		log.Error("server stopped with error", "err", err)
		return 1
	}
	return 0
}
