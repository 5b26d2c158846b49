// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration.
type Config struct {
	Port            int
	LogLevel        string
	LogPretty       bool
	InitialCash     decimal.Decimal
	UniversePath    string
	ScenariosPath   string
	ProviderTimeout time.Duration
	SessionTTL      time.Duration
	DatabaseURL     string
	RedisURL        string
	AllowedOrigins  []string
	YahooBaseURL    string
}

// Load reads configuration from environment variables, after loading a
// .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cash, err := decimal.NewFromString(getEnv("INITIAL_CASH", "100000"))
	if err != nil {
		return nil, fmt.Errorf("INITIAL_CASH: %w", err)
	}

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvAsBool("LOG_PRETTY", false),
		InitialCash:     cash,
		UniversePath:    getEnv("UNIVERSE_PATH", "data/ticker.csv"),
		ScenariosPath:   getEnv("SCENARIOS_PATH", ""),
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		YahooBaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if !c.InitialCash.IsPositive() {
		return fmt.Errorf("INITIAL_CASH must be positive, got %s", c.InitialCash)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.UniversePath == "" {
		return fmt.Errorf("UNIVERSE_PATH is required")
	}
	if c.YahooBaseURL == "" {
		return fmt.Errorf("YAHOO_BASE_URL is required")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
