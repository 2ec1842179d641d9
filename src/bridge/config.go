package bridge

import (
	"os"
	"strconv"
)

// RedisConfig holds connection settings for the Redis mirror.
type RedisConfig struct {
	Enabled   bool   // default true; REDIS_MIRROR_ENABLED=false disables
	Addr      string // Redis address, default "localhost:6379"
	Password  string // Redis password, default ""
	DB        int    // Redis database number, default 0
	Prefix    string // Channel prefix, default "campus:chat:"
	QueueSize int    // Pending messages before new ones are dropped, default 1024
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:   true,
		Addr:      "localhost:6379",
		Prefix:    "campus:chat:",
		QueueSize: 1024,
	}
}

// RedisConfigFromEnv loads Redis configuration from environment variables.
// Falls back to defaults for any missing values.
func RedisConfigFromEnv() *RedisConfig {
	cfg := DefaultRedisConfig()

	if v := os.Getenv("REDIS_MIRROR_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = enabled
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Password = pw
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			cfg.DB = db
		}
	}
	if prefix := os.Getenv("REDIS_CHAT_PREFIX"); prefix != "" {
		cfg.Prefix = prefix
	}
	if qs := os.Getenv("REDIS_MIRROR_QUEUE"); qs != "" {
		if n, err := strconv.Atoi(qs); err == nil && n > 0 {
			cfg.QueueSize = n
		}
	}
	return cfg
}
