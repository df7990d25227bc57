// Trend import tool: reads region,date,search_index rows from a file or URL and upserts them
// into PostgreSQL in batches.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"market-map/internal/config"
	"market-map/internal/ingest"
	"market-map/internal/logger"
	"market-map/internal/migrate"
	"market-map/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(1)
	}
	l := logger.SetupWith(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	src := flag.String("src", cfg.Trend.IngestSource, "CSV path or URL (default TREND_INGEST_SOURCE)")
	enc := flag.String("encoding", "utf-8", "source encoding: utf-8, euc-kr")
	batch := flag.Int("batch", ingest.DefaultBatch, "rows per transaction")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall timeout")
	flag.Parse()
	if *src == "" {
		l.Error("ingest_no_source", "hint", "set -src or TREND_INGEST_SOURCE")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := store.Open(cfg.Postgres)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := migrate.EnsureSchema(ctx, st.DB()); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	stats, err := ingest.ImportTrendSource(ctx, st.DB(), *src, *enc, *batch)
	if err != nil {
		l.Error("ingest_error", "src", *src, "rows", stats.Rows, "err", err)
		os.Exit(1)
	}
	l.Info("ingest_ok", "src", *src, "rows", stats.Rows, "skipped", stats.Skipped, "batches", stats.Batches)
}
