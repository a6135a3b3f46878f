package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront_backend/internal/search"
	"storefront_backend/platform/config"
	"storefront_backend/platform/db"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting search reindex")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	searchModule := search.NewModule(pool, nil, nil, nil, cfg, validator.New(), log)
	svc := searchModule.Service()

	if health, ok := svc.Health(ctx); !ok {
		log.Error("search capabilities missing", "missing", health.Missing, "reason", health.Reason)
		panic("search capabilities missing; run the api once to apply migrations")
	}

	result, err := svc.ReindexAll(ctx)
	if err != nil {
		log.Error("reindex failed", "error", err)
		panic("reindex failed: " + err.Error())
	}

	log.Info("reindex complete", "updated", result.UpdatedCount, "durationMs", result.DurationMs)
}
