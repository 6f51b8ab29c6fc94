package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultSettings returns the built-in settings. API keys are empty so that
// an unconfigured process reports api_key_configured=false.
func DefaultSettings() *Settings {
	return &Settings{
		Model:    DefaultModel,
		Host:     "127.0.0.1",
		Port:     "8000",
		LogLevel: "info",
	}
}

// WriteDefault writes a starter config file to path. API keys reference
// environment variables so secrets stay out of the file.
func WriteDefault(path string) error {
	cfg := DefaultSettings()
	cfg.GeminiAPIKey = "${GEMINI_API_KEY}"
	cfg.GoogleAPIKey = "${GOOGLE_API_KEY}"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# textjson configuration
# API keys use ${ENV_VAR} syntax to reference environment variables.
# GEMINI_API_KEY wins over GOOGLE_API_KEY when both are set.

`)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return os.WriteFile(path, append(header, data...), 0o644)
}
