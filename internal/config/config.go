package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all server settings, loaded from the environment
type Config struct {
	Addr           string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Grace period before an empty room's event log is discarded
	RoomTTL time.Duration

	MaxRoomSize       int
	MaxMessageSize    int
	MessagesPerSecond float64
	BurstSize         int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment with sensible defaults
func Load() *Config {
	return &Config{
		Addr:           getEnv("ADDR", ":8080"),
		AllowedOrigins: splitCSV(getEnv("DOMAINS", "")),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RoomTTL: time.Duration(getEnvInt("ROOM_TTL_SECONDS", 300)) * time.Second,

		MaxRoomSize:       getEnvInt("MAX_ROOM_SIZE", 50),
		MaxMessageSize:    getEnvInt("MAX_MESSAGE_SIZE", 1024),
		MessagesPerSecond: getEnvFloat("MESSAGES_PER_SECOND", 30),
		BurstSize:         getEnvInt("BURST_SIZE", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// getEnv returns the env var or a default
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback
func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

// getEnvFloat parses a float env var with a fallback
func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
