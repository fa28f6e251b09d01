package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the bidding engine, everything comes
// from the environment (.env file supported) with sane defaults.
type Config struct {
	HTTPAddr string

	// RedisAddr enables the redis event publisher when non-empty.
	RedisAddr     string
	RedisPassword string

	// SettlementURL is the escrow/settlement webhook base URL. Empty means
	// the logging bridge is used instead.
	SettlementURL string

	// SweepInterval is how often the background closer runs.
	SweepInterval time.Duration

	// LockTimeout bounds how long a bid request may wait for the
	// per-auction row lock before failing as retryable contention.
	LockTimeout time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":9000"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SettlementURL: os.Getenv("SETTLEMENT_URL"),
		SweepInterval: getDuration("SWEEP_INTERVAL", 30*time.Second),
		LockTimeout:   getDuration("LOCK_TIMEOUT", 3*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
