package config

import (
	"os"
	"strconv"
	"time"
)

// SocketConfig holds WebSocket relay configuration.
type SocketConfig struct {
	MaxConnections  int `json:"max_connections"`
	PingInterval    int `json:"ping_interval_seconds"`
	WriteTimeout    int `json:"write_timeout_seconds"`
	ReadBufferSize  int `json:"read_buffer_size"`
	WriteBufferSize int `json:"write_buffer_size"`
	MaxMessageBytes int `json:"max_message_bytes"`
	SendBuffer      int `json:"send_buffer"`
	HistoryCapacity int `json:"history_capacity"`
}

// DefaultConfig returns the default WebSocket configuration.
func DefaultConfig() *SocketConfig {
	return &SocketConfig{
		MaxConnections:  1000,
		PingInterval:    30,
		WriteTimeout:    10,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageBytes: 64 * 1024,
		SendBuffer:      256,
		HistoryCapacity: 100,
	}
}

// FromEnv loads socket settings from environment variables, falling back to
// defaults for anything missing or invalid.
func FromEnv() *SocketConfig {
	cfg := DefaultConfig()
	cfg.MaxConnections = envInt("WS_MAX_CONNECTIONS", cfg.MaxConnections)
	cfg.PingInterval = envInt("WS_PING_INTERVAL", cfg.PingInterval)
	cfg.WriteTimeout = envInt("WS_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ReadBufferSize = envInt("WS_READ_BUFFER", cfg.ReadBufferSize)
	cfg.WriteBufferSize = envInt("WS_WRITE_BUFFER", cfg.WriteBufferSize)
	cfg.MaxMessageBytes = envInt("WS_MAX_MESSAGE_BYTES", cfg.MaxMessageBytes)
	cfg.SendBuffer = envInt("WS_SEND_BUFFER", cfg.SendBuffer)
	cfg.HistoryCapacity = envInt("ROOM_HISTORY_CAPACITY", cfg.HistoryCapacity)
	return cfg
}

// Ping returns the keepalive ping period.
func (c *SocketConfig) Ping() time.Duration { return time.Duration(c.PingInterval) * time.Second }

// PongWait is how long a connection may stay silent before it is dropped.
func (c *SocketConfig) PongWait() time.Duration { return c.Ping() * 10 / 9 }

// WriteWait returns the deadline for a single frame write.
func (c *SocketConfig) WriteWait() time.Duration { return time.Duration(c.WriteTimeout) * time.Second }

// ServerConfig holds process-level settings.
type ServerConfig struct {
	Env          string
	HTTPAddr     string
	LogLevel     string
	ServerHeader string
}

// ServerFromEnv loads process settings from the environment.
func ServerFromEnv() ServerConfig {
	return ServerConfig{
		Env:          envString("APP_ENV", "dev"),
		HTTPAddr:     envString("HTTP_ADDR", ":8080"),
		LogLevel:     envString("LOG_LEVEL", ""),
		ServerHeader: envString("SERVER_HEADER", "campus-relay"),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt parses a positive int, ignoring zero, negative and malformed values.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
