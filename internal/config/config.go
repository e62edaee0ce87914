// Package config loads service configuration from environment variables
// into an explicit struct that is passed to the components needing it.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	RedisURL      string
	ServerPort    string
	BaseURL       string
	FrontendURL   string
	CookieSecret  string
	SecureCookies bool
	EnableHSTS    bool
	DebugMode     bool

	// AuthRateLimit is an ulule/limiter formatted rate ("10-M") applied
	// to the credential and OAuth routes.
	AuthRateLimit string

	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	SweepIntervalHours int

	OTELEnabled  bool
	OTELEndpoint string
}

// Load reads configuration from the environment. DATABASE_URL and a
// sufficiently long COOKIE_SECRET are required; OAuth providers without
// credentials are simply not registered.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		CookieSecret:       getEnv("COOKIE_SECRET", ""),
		SecureCookies:      getEnvBool("SECURE_COOKIES", true),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		DebugMode:          getEnvBool("SERVER_DEBUG_MODE", false),
		AuthRateLimit:      getEnv("AUTH_RATE_LIMIT", "10-M"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		SweepIntervalHours: getEnvInt("SWEEP_INTERVAL_HOURS", 24),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if len(cfg.CookieSecret) < 32 {
		return nil, fmt.Errorf("COOKIE_SECRET is required and must be at least 32 bytes")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
