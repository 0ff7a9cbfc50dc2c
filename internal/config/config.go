package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds server configuration loaded from environment variables.
// Secrets are required; everything else has development defaults.
type Config struct {
	Port        string
	Environment string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret []byte

	LogLevel string
	LogFile  string

	CORSOrigins []string

	// Dedup window for per-viewer view counting.
	ViewWindow time.Duration

	// Fixed-window API rate limit.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Load reads configuration from the environment.
// JWT_SECRET is required; the process should fail fast without it.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Environment:     getEnvOrDefault("ENVIRONMENT", "development"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisHost:       getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:       getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       []byte(jwtSecret),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:         getEnvOrDefault("LOG_FILE", "server.log"),
		ViewWindow:      time.Hour,
		RateLimitMax:    300,
		RateLimitWindow: time.Minute,
	}

	origins := getEnvOrDefault("CORS_ORIGINS", "*")
	cfg.CORSOrigins = strings.Split(origins, ",")

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
