// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port             string
	Address          string
	Env              string
	LogLevel         string
	LogRetentionDays int
	MaxRequestBody   int64 // Maximum request body size in bytes
	MaxHeaderSize    int64 // Maximum header size in bytes

	DocumentPath string // Path to the formulary document to ingest
	IngestTimes  string // gocron daily times, e.g. "06:00;18:00"

	RetrievalLimit    int           // Chunk cap for single-drug retrieval
	ComparisonDrugCap int           // Per-drug chunk cap in comparison mode
	CacheTTL          time.Duration // Response cache time-to-live

	ClassifierBaseURL string // OpenAI-compatible endpoint, empty disables
	ClassifierAPIKey  string
	ClassifierModel   string
	ClassifierTimeout time.Duration
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnvWithDefault("PORT", "8000"),
		Address:          getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:              getEnvWithDefault("ENV", "dev"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		LogRetentionDays: getIntEnvWithDefault("LOG_RETENTION_DAYS", 28),
		MaxRequestBody:   getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
		MaxHeaderSize:    getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),  // 1MB default

		DocumentPath: getEnvWithDefault("FORMULARY_DOCUMENT", "files/formulary.txt"),
		IngestTimes:  getEnvWithDefault("INGEST_TIMES", "06:00;18:00"),

		RetrievalLimit:    getIntEnvWithDefault("RETRIEVAL_LIMIT", 8),
		ComparisonDrugCap: getIntEnvWithDefault("COMPARISON_DRUG_CAP", 5),
		CacheTTL:          getDurationEnvWithDefault("CACHE_TTL", 5*time.Minute),

		ClassifierBaseURL: os.Getenv("CLASSIFIER_BASE_URL"),
		ClassifierAPIKey:  os.Getenv("CLASSIFIER_API_KEY"),
		ClassifierModel:   getEnvWithDefault("CLASSIFIER_MODEL", "gpt-4o-mini"),
		ClassifierTimeout: getDurationEnvWithDefault("CLASSIFIER_TIMEOUT", 8*time.Second),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if cfg.LogRetentionDays <= 0 || cfg.LogRetentionDays > 365 {
		return fmt.Errorf("invalid LOG_RETENTION_DAYS: must be in 1..365, got %d", cfg.LogRetentionDays)
	}

	if err := validateIngestTimes(cfg.IngestTimes); err != nil {
		return fmt.Errorf("invalid INGEST_TIMES: %w", err)
	}

	if cfg.RetrievalLimit < 1 || cfg.RetrievalLimit > 50 {
		return fmt.Errorf("invalid RETRIEVAL_LIMIT: must be in 1..50, got %d", cfg.RetrievalLimit)
	}

	if cfg.ComparisonDrugCap < 1 || cfg.ComparisonDrugCap > 25 {
		return fmt.Errorf("invalid COMPARISON_DRUG_CAP: must be in 1..25, got %d", cfg.ComparisonDrugCap)
	}

	if cfg.CacheTTL < time.Second || cfg.CacheTTL > time.Hour {
		return fmt.Errorf("invalid CACHE_TTL: must be between 1s and 1h, got %s", cfg.CacheTTL)
	}

	if cfg.ClassifierTimeout < 100*time.Millisecond || cfg.ClassifierTimeout > time.Minute {
		return fmt.Errorf("invalid CLASSIFIER_TIMEOUT: must be between 100ms and 1m, got %s", cfg.ClassifierTimeout)
	}

	if cfg.ClassifierBaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.ClassifierBaseURL); err != nil {
			return fmt.Errorf("invalid CLASSIFIER_BASE_URL: %w", err)
		}
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateIngestTimes validates the semicolon-separated daily ingest times
func validateIngestTimes(times string) error {
	if times == "" {
		return fmt.Errorf("INGEST_TIMES cannot be empty")
	}

	for _, t := range strings.Split(times, ";") {
		if _, err := time.Parse("15:04", strings.TrimSpace(t)); err != nil {
			return fmt.Errorf("ingest time %q must be HH:MM: %w", t, err)
		}
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault gets an environment variable as duration with a default value
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_DAYS",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"FORMULARY_DOCUMENT",
		"INGEST_TIMES",
		"RETRIEVAL_LIMIT",
		"COMPARISON_DRUG_CAP",
		"CACHE_TTL",
		"CLASSIFIER_BASE_URL",
		"CLASSIFIER_API_KEY",
		"CLASSIFIER_MODEL",
		"CLASSIFIER_TIMEOUT",
	}
}
