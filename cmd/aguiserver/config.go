package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration loaded from environment variables.
type Config struct {
	// Server
	Port     string
	LogLevel string // debug, info, warn, error

	// Model routes the request to its provider; empty uses per-request
	// models or fails, so it is effectively required.
	Model string

	// API Keys
	AnthropicKey string
	OpenAIKey    string
	GoogleKey    string

	// Agent config
	MaxSteps        int
	Timeout         time.Duration
	EnableDemoTools bool
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func LoadConfig() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("AGUI_PORT", "8000"),
		LogLevel:        getEnvOrDefault("AGUI_LOG_LEVEL", "info"),
		Model:           os.Getenv("LOOM_MODEL"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		GoogleKey:       os.Getenv("GOOGLE_API_KEY"),
		MaxSteps:        getEnvIntOrDefault("LOOM_MAX_STEPS", 10),
		Timeout:         getEnvDurationOrDefault("LOOM_TIMEOUT", 2*time.Minute),
		EnableDemoTools: getEnvBoolOrDefault("LOOM_DEMO_TOOLS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("LOOM_MODEL is required (e.g. claude-sonnet-4-5, gpt-5.2, gemini-2.5-flash)")
	}
	if c.AnthropicKey == "" && c.OpenAIKey == "" && c.GoogleKey == "" {
		return fmt.Errorf("at least one of ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY is required")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
