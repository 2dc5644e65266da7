package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Telegram Bot configuration
	BotToken string

	// Storage configuration
	DataDir string

	// Enforcement configuration
	PollInterval      time.Duration
	DisconnectTimeout time.Duration

	// OpenAI configuration (optional, message phrasing only)
	OpenAIAPIBase string
	OpenAIAPIKey  string
	OpenAIModel   string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{}

	// Required configurations
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	cfg.BotToken = botToken

	// Optional configurations with defaults
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "./data")

	pollSeconds, err := getEnvInt("POLL_INTERVAL_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	// The enforcement tick is meant to be frequent but bounded.
	if pollSeconds < 2 {
		pollSeconds = 2
	}
	if pollSeconds > 60 {
		pollSeconds = 60
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	timeoutSeconds, err := getEnvInt("DISCONNECT_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cfg.DisconnectTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIAPIBase = getEnvWithDefault("OPENAI_API_BASE", "https://api.openai.com/v1")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-3.5-turbo")

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	if len(logCfg.BotToken) > 8 {
		logCfg.BotToken = logCfg.BotToken[:8] + "...REDACTED..."
	}
	if len(logCfg.OpenAIAPIKey) > 8 {
		logCfg.OpenAIAPIKey = logCfg.OpenAIAPIKey[:8] + "...REDACTED..."
	}
	log.Printf("Configuration loaded: %+v", logCfg)
	return cfg, nil
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt returns the integer value of the environment variable or the default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
