package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Presence PresenceConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the connection URL for the status cache and pending
// write set. An empty URL selects the in-process fallback store.
type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	AccessSecret string
	Issuer       string
}

// PresenceConfig carries the timing knobs of the presence engine.
type PresenceConfig struct {
	StatusTTL           time.Duration // status cache entry lifetime
	FlushInterval       time.Duration // pending set drain cadence
	FlushChunkSize      int           // rows per batched durable update
	ReapInterval        time.Duration // stale membership sweep cadence
	InactivityThreshold time.Duration // membership considered stale after this
	HeartbeatLimit      int           // heartbeats per user per window
	HeartbeatWindow     time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8099"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "parley:parley@tcp(localhost:3306)/parley?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			Issuer:       getenv("JWT_ISSUER", "parley"),
		},
		Presence: PresenceConfig{
			StatusTTL:           getenvDuration("STATUS_TTL", 300*time.Second),
			FlushInterval:       getenvDuration("STATUS_FLUSH_INTERVAL", 30*time.Second),
			FlushChunkSize:      getenvInt("STATUS_FLUSH_CHUNK", 100),
			ReapInterval:        getenvDuration("REAP_INTERVAL", 5*time.Minute),
			InactivityThreshold: getenvDuration("INACTIVITY_THRESHOLD", 30*time.Minute),
			HeartbeatLimit:      getenvInt("HEARTBEAT_LIMIT", 120),
			HeartbeatWindow:     getenvDuration("HEARTBEAT_WINDOW", time.Minute),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
