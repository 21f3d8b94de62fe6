package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIBaseURL string // Required: backend base URL (default: http://localhost:3000/api)

	StoreDriver string // Credential store driver (memory, bolt, sqlite) (default: sqlite)
	StorePath   string // Path to the store file, ignored for memory (default: ./console.db)

	LoginURL       string   // Login view location (default: /auth/login)
	PublicPrefixes []string // Comma-separated view prefixes reachable without a session

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)

	RequestTimeout time.Duration // Per-request HTTP timeout (default: 10s)

	LoginRatePeriod time.Duration // Minimum spacing between login attempts once the burst is spent (default: 12s)
	LoginBurst      int           // Login attempts allowed before throttling kicks in (default: 5)
}

func LoadConfig() Config {
	cfg := Config{
		APIBaseURL:      getEnvOrDefault("CONSOLE_API_BASE_URL", "http://localhost:3000/api"),
		StoreDriver:     getEnvOrDefault("CONSOLE_STORE_DRIVER", "sqlite"),
		StorePath:       getEnvOrDefault("CONSOLE_STORE_PATH", "console.db"),
		LoginURL:        getEnvOrDefault("CONSOLE_LOGIN_URL", "/auth/login"),
		Env:             getEnvOrDefault("ENV", "dev"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "text"),
		RequestTimeout:  getEnvDurationOrDefault("CONSOLE_REQUEST_TIMEOUT", 10*time.Second),
		LoginRatePeriod: getEnvDurationOrDefault("CONSOLE_LOGIN_RATE_PERIOD", 12*time.Second),
		LoginBurst:      getEnvIntOrDefault("CONSOLE_LOGIN_BURST", 5),
	}

	if prefixes := os.Getenv("CONSOLE_PUBLIC_PREFIXES"); prefixes != "" {
		for _, p := range strings.Split(prefixes, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.PublicPrefixes = append(cfg.PublicPrefixes, p)
			}
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
