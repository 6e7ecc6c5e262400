// Command migrate applies pending PostgreSQL migrations and exits. Use it
// when database.migrate_on_start is off.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/storybible-backend/internal/adapter/postgres"
	"github.com/heartmarshall/storybible-backend/internal/app"
	"github.com/heartmarshall/storybible-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if cfg.Storage.Driver != config.StoragePostgres {
		logger.Info("nothing to migrate", slog.String("storage", cfg.Storage.Driver))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, logger); err != nil {
		logger.Error("migrate failed", slog.String("error", err.Error()))
		pool.Close()
		os.Exit(1)
	}

	logger.Info("migrations applied")
}
