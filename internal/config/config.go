package config

import (
	"os"
	"strconv"
	"time"

	"ideaforge/internal/errors"
	"ideaforge/models"
)

// Config represents the complete application configuration. It is
// resolved once at startup; nothing re-derives defaults at usage sites.
type Config struct {
	Database DatabaseConfig
	AI       models.AIConfig
	Server   ServerConfig
	Run      RunConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// RunConfig holds validation-run scheduling settings
type RunConfig struct {
	Timeout time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	config.Server = ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
	config.Run = RunConfig{
		Timeout: getEnvDurationOrDefault("RUN_TIMEOUT", 10*time.Minute),
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	return &DatabaseConfig{
		URL:     url,
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}, nil
}

func loadAIConfig() (*models.AIConfig, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return nil, errors.ConfigInvalid("OPENAI_API_KEY is required")
	}
	return &models.AIConfig{
		OpenAIKey:     openaiKey,
		OpenAIModel:   getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		BaseURL:       getEnvOrDefault("LLM_BASE_URL", ""),
		SystemContext: "You are a product validation assistant. Respond with valid JSON.",
		MaxTokens:     getEnvIntOrDefault("MAX_TOKENS", 4000),
		Temperature:   getEnvFloatOrDefault("TEMPERATURE", 0.7),
		TimeoutMs:     getEnvIntOrDefault("LLM_TIMEOUT_MS", 60000),
	}, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
