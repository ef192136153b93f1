package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	// ServerSeed pins the provably-fair server seed across restarts.
	// Empty means a fresh random seed is generated on boot.
	ServerSeed         string
	SeedRotateInterval time.Duration

	StartingBalance int64
	DailyBonus      int64
	CatalogCacheTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		RedisURL:           getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:          getEnv("REDIS_PASSWORD", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		ServerSeed:         getEnv("SERVER_SEED", ""),
		SeedRotateInterval: getDuration("SEED_ROTATE_INTERVAL", 24*time.Hour),
		StartingBalance:    getInt64("STARTING_BALANCE", 10000), // cents
		DailyBonus:         getInt64("DAILY_BONUS", 500),
		CatalogCacheTTL:    getDuration("CATALOG_CACHE_TTL", 3*time.Minute),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-do-not-use"
	}

	if cfg.StartingBalance < 0 || cfg.DailyBonus <= 0 {
		return nil, fmt.Errorf("STARTING_BALANCE must be >= 0 and DAILY_BONUS > 0")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
