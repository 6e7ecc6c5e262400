// Command seeder writes a demo series through the regular services so that a
// fresh store has something to browse. It uses whichever storage driver the
// configuration selects.
//
// Flags:
//
//	--title  title of the seeded series (default "Harbor Lights")
//	--actor  actor id recorded on the audit trail (default "seeder")
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/storybible-backend/internal/app"
	"github.com/heartmarshall/storybible-backend/internal/config"
	"github.com/heartmarshall/storybible-backend/pkg/ctxutil"
)

func main() {
	titleFlag := flag.String("title", "", "title of the seeded series")
	actorFlag := flag.String("actor", "seeder", "actor id recorded on the audit trail")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)
	logger.Info("starting seeder", slog.String("version", app.BuildVersion()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = ctxutil.WithActorID(ctx, *actorFlag)
	ctx, _ = ctxutil.EnsureRequestID(ctx)

	svc, cleanup, err := app.Open(ctx, *cfg, logger)
	if err != nil {
		logger.Error("open services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	series, err := app.SeedDemo(ctx, svc, *titleFlag)
	if err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		cleanup()
		os.Exit(1)
	}

	logger.Info("seed completed",
		slog.String("series_id", series.ID),
		slog.String("title", series.Title),
	)
}
