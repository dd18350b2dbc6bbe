package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oilrush/internal/config"
	"oilrush/internal/db"
	"oilrush/internal/economy"
	"oilrush/internal/game"
	"oilrush/internal/store"
	"oilrush/internal/supabase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cat := economy.DefaultCatalog()
	if cfg.CatalogPath != "" {
		cat, err = economy.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			logger.Error("catalog load failed", "path", cfg.CatalogPath, "err", err)
			os.Exit(1)
		}
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, 4)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		st = store.NewPostgres(pool)
	} else {
		st = store.NewSupabase(supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, supabase.WithServiceKey(cfg.SupabaseServiceKey)))
	}
	svc := game.NewService(st, cat, logger)

	if cfg.RunOnce {
		n, err := svc.PurgeExpiredBoosters(ctx, cfg.Retention)
		if err != nil {
			logger.Error("purge failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "profiles", n)
		return
	}

	ticker := time.NewTicker(cfg.TickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.TickEvery.String(), "retention", cfg.Retention.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredBoosters(ctx, cfg.Retention)
			if err != nil {
				logger.Error("booster purge failed", "err", err)
				continue
			}
			logger.Info("booster purge complete", "profiles", n)
		}
	}
}
