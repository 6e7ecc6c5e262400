// Command continuity prints the continuity graph of a series as indented
// JSON. With --query it prints a page of search results instead, and with
// --audit a page of the series' audit trail.
//
// Flags:
//
//	--series  series id (required)
//	--query   search text; "*" matches everything
//	--audit   print the audit trail
//	--limit   page size for --query and --audit (default 20)
//	--offset  page offset for --query and --audit
//
// Exit codes: 0 = success, 1 = error, 2 = usage.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/storybible-backend/internal/app"
	"github.com/heartmarshall/storybible-backend/internal/config"
	"github.com/heartmarshall/storybible-backend/pkg/ctxutil"
)

func main() {
	seriesFlag := flag.String("series", "", "series id")
	queryFlag := flag.String("query", "", `search text ("*" matches everything)`)
	auditFlag := flag.Bool("audit", false, "print the audit trail")
	limitFlag := flag.Int("limit", 20, "page size")
	offsetFlag := flag.Int("offset", 0, "page offset")
	flag.Parse()

	if *seriesFlag == "" {
		fmt.Fprintln(os.Stderr, "continuity: --series is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx, _ = ctxutil.EnsureRequestID(ctx)

	svc, cleanup, err := app.Open(ctx, *cfg, logger)
	if err != nil {
		logger.Error("open services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	var out any
	switch {
	case *auditFlag:
		out, err = svc.Audit.BySeries(ctx, *seriesFlag, *offsetFlag, *limitFlag)
	case *queryFlag != "":
		q := *queryFlag
		if q == "*" {
			q = ""
		}
		out, err = svc.Search.Search(ctx, *seriesFlag, q, *limitFlag, *offsetFlag)
	default:
		out, err = svc.Continuity.Build(ctx, *seriesFlag)
	}
	if err != nil {
		logger.Error("query failed", slog.String("series_id", *seriesFlag), slog.String("error", err.Error()))
		cleanup()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", slog.String("error", err.Error()))
		cleanup()
		os.Exit(1)
	}
}
