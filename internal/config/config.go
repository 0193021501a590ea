package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"recipes/internal/logger"
)

// Config is read from the environment (and a .env file loaded by main).
type Config struct {
	// Rendering
	OutputDir    string `env:"RECIPES_OUTPUT_DIR"`
	FontDir      string `env:"RECIPES_FONT_DIR"`
	BatchWorkers int    `env:"BATCH_WORKERS"      envDefault:"4"`

	// Google credentials for Sheets, either a file or the JSON itself
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	CredentialsJSON string `env:"GOOGLE_CREDENTIALS"`

	// Google Sheets Configuration
	GoogleSheetURL       string `env:"GOOGLE_SHEET_URL"`
	GoogleSheetWorksheet string `env:"GOOGLE_SHEET_WORKSHEET" envDefault:"Rückforderungsbelege"`

	// Google Cloud Configuration
	GoogleCloudProject         string `env:"GOOGLE_CLOUD_PROJECT"`
	GoogleCloudLocation        string `env:"GOOGLE_CLOUD_LOCATION"         envDefault:"eu"`
	DocumentAIProcessorID      string `env:"DOCUMENT_AI_PROCESSOR_ID"`
	DocumentAIProcessorVersion string `env:"DOCUMENT_AI_PROCESSOR_VERSION"`

	// Logging Configuration
	LogLevel      string `env:"LOG_LEVEL"       envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT"      envDefault:"console"`
	LogTimeFormat string `env:"LOG_TIME_FORMAT" envDefault:"2006-01-02T15:04:05Z07:00"`
	LogOutput     string `env:"LOG_OUTPUT"      envDefault:"stderr"`
}

// Errors returned by the Require* checks. Commands call them lazily, so a
// plain render run needs no cloud configuration.
var (
	ErrSheetsNotConfigured     = errors.New("GOOGLE_SHEET_URL is required")
	ErrCredentialsMissing      = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
	ErrDocumentAINotConfigured = errors.New("GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID are required")
)

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.BatchWorkers)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// RequireSheets checks the settings the Sheets export needs.
func (c *Config) RequireSheets() error {
	if c.GoogleSheetURL == "" {
		return ErrSheetsNotConfigured
	}
	if c.CredentialsFile == "" && c.CredentialsJSON == "" {
		return ErrCredentialsMissing
	}
	return nil
}

// RequireDocumentAI checks the settings the total verification needs.
func (c *Config) RequireDocumentAI() error {
	if c.GoogleCloudProject == "" || c.DocumentAIProcessorID == "" {
		return ErrDocumentAINotConfigured
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}
