// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full server configuration. MongoURI and RedisURI are
// optional: without Mongo the built-in demo question bank is used, without
// Redis the leaderboard mirror is disabled.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	RedisURI  string
	JWTSecret string

	TickInterval time.Duration
	GracePeriod  time.Duration
	EmptyRoomTTL time.Duration

	CORSAllowedOrigins string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getenv("PORT", "8080"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getenv("MONGO_DB", "nerdquiz"),
		RedisURI:           os.Getenv("REDIS_URI"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TickInterval:       duration("TICK_INTERVAL_MS", 250) * time.Millisecond,
		GracePeriod:        duration("GRACE_PERIOD_SEC", 60) * time.Second,
		EmptyRoomTTL:       duration("EMPTY_ROOM_TTL_SEC", 30) * time.Second,
		CORSAllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", "*"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback int64) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}
