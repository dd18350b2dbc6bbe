package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	Addr               string
	DatabaseURL        string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string
	CatalogPath        string
	DBMaxConns         int32
	Redis              RedisConfig
	CaseOpenLimit      int
	CaseOpenWindow     time.Duration
}

// RedisConfig is optional; an empty Addr disables rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type WorkerConfig struct {
	DatabaseURL        string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	CatalogPath        string
	TickEvery          time.Duration
	Retention          time.Duration
	RunOnce            bool
}

type CLIConfig struct {
	APIBaseURL  string
	CatalogPath string
}

// LoadDotEnv reads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("OILRUSH_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:               addr,
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SupabaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseAnonKey:    strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		SupabaseServiceKey: strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_KEY")),
		SupabaseJWTSecret:  strings.TrimSpace(os.Getenv("SUPABASE_JWT_SECRET")),
		CatalogPath:        catalogPath(),
		DBMaxConns:         int32(envIntDefault("OILRUSH_DB_MAX_CONNS", 20)),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envIntDefault("REDIS_DB", 0),
		},
		CaseOpenLimit:  envIntDefault("OILRUSH_CASE_OPEN_LIMIT", 30),
		CaseOpenWindow: envDurationDefault("OILRUSH_CASE_OPEN_WINDOW", time.Minute),
	}
	if cfg.SupabaseURL == "" {
		return cfg, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return cfg, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if cfg.DatabaseURL == "" && cfg.SupabaseServiceKey == "" {
		return cfg, fmt.Errorf("DATABASE_URL or SUPABASE_SERVICE_KEY is required")
	}
	if cfg.DBMaxConns < 1 {
		return cfg, fmt.Errorf("OILRUSH_DB_MAX_CONNS must be positive")
	}
	if cfg.CaseOpenLimit < 1 || cfg.CaseOpenWindow <= 0 {
		return cfg, fmt.Errorf("case open rate limit must be positive")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SupabaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseAnonKey:    strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		SupabaseServiceKey: strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_KEY")),
		CatalogPath:        catalogPath(),
		TickEvery:          envDurationDefault("OILRUSH_WORKER_TICK_EVERY", 5*time.Minute),
		Retention:          envDurationDefault("OILRUSH_BOOSTER_RETENTION", time.Hour),
		RunOnce:            envBoolDefault("OILRUSH_WORKER_RUN_ONCE", false),
	}
	if cfg.DatabaseURL == "" && (cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "") {
		return cfg, fmt.Errorf("DATABASE_URL or SUPABASE_URL with SUPABASE_SERVICE_KEY is required")
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("OILRUSH_WORKER_TICK_EVERY must be positive")
	}
	if cfg.Retention < 0 {
		return cfg, fmt.Errorf("OILRUSH_BOOSTER_RETENTION must not be negative")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL:  strings.TrimRight(envDefault("OILRUSH_API_BASE_URL", "http://localhost:8080"), "/"),
		CatalogPath: catalogPath(),
	}
}

func catalogPath() string {
	p := strings.TrimSpace(os.Getenv("OILRUSH_CATALOG_PATH"))
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
