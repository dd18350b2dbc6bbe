package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oilrush/internal/api"
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
	cfg, err := config.LoadAPIFromEnv()
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

	authClient := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)

	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		st = store.NewPostgres(pool)
	} else {
		st = store.NewSupabase(supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, supabase.WithServiceKey(cfg.SupabaseServiceKey)))
	}

	var verifier supabase.TokenVerifier = authClient
	if cfg.SupabaseJWTSecret != "" {
		verifier = supabase.NewJWTVerifier(cfg.SupabaseJWTSecret)
	}

	redisClient := api.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if redisClient != nil {
		defer redisClient.Close()
	} else if cfg.Redis.Addr != "" {
		logger.Warn("redis unavailable, case opening is not rate limited", "addr", cfg.Redis.Addr)
	}
	limiter := api.NewRateLimiter(redisClient, cfg.CaseOpenLimit, cfg.CaseOpenWindow)

	gameSvc := game.NewService(st, cat, logger)
	server := api.New(logger, authClient, verifier, gameSvc, limiter)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("oilrush api listening", "addr", cfg.Addr, "postgres", cfg.DatabaseURL != "", "local_jwt", cfg.SupabaseJWTSecret != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
