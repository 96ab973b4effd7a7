package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// LLM
	LLMProvider  string // 目前只支持 "gemini"
	GeminiAPIKey string

	// GitHub
	GitHubToken string

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// Scan
	TargetCount int // 每次扫描最终保留的项目数
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		LLMProvider:  getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GitHubToken:  getEnv("GITHUB_TOKEN", ""),
		StorageType:  getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:   getEnv("SQLITE_PATH", "./trendradar.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		APIPort:      getEnv("API_PORT", "8080"),
		APIHost:      getEnv("API_HOST", "localhost"),
		TargetCount:  getEnvInt("TARGET_COUNT", 10),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// Validate validates the configuration.
// The LLM credential is not checked here: it may also come from the
// persisted store or be entered later through the dashboard.
func (c *Config) Validate() error {
	if c.LLMProvider != "gemini" {
		return &ConfigError{Field: "LLM_PROVIDER", Message: "unknown provider: " + c.LLMProvider}
	}
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
