package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN renders the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// EngineConfig holds the allocation-engine knobs that are administrative
// configuration, not algorithmic constants.
type EngineConfig struct {
	// SweepInterval is how often the background deadline sweep runs.
	SweepInterval time.Duration
	// AcceptanceWindowDays is the default proposal-to-deadline window, used
	// when a program does not set its own.
	AcceptanceWindowDays int
	// SimilarityFloor is the minimum confidence for a duplicate match to be
	// surfaced to the reviewer.
	SimilarityFloor float64
	// SnapshotTTL is the Redis TTL of cached waitlist snapshots.
	SnapshotTTL time.Duration
}

// Config for the housing-core service.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Engine EngineConfig
}

// Load reads configuration from environment variables with dev-friendly
// defaults: with no env set, the service runs against localhost Postgres/Redis
// and falls back to in-memory repositories when the DB is unreachable.
func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "housing_core")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Engine.SweepInterval = parseDuration(getEnv("SWEEP_INTERVAL", "1h"), time.Hour)
	cfg.Engine.AcceptanceWindowDays = parseInt(getEnv("ACCEPTANCE_WINDOW_DAYS", "30"), 30)
	cfg.Engine.SimilarityFloor = parseFloat(getEnv("SCREENER_SIMILARITY_FLOOR", "0.75"), 0.75)
	cfg.Engine.SnapshotTTL = parseDuration(getEnv("SNAPSHOT_CACHE_TTL", "30s"), 30*time.Second)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
