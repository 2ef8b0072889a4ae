// Package config provides environment configuration and voice profile
// loading for the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings holds process-level configuration resolved from the environment.
// CLI flags override these after loading.
type Settings struct {
	GeminiAPIKey    string
	AnthropicAPIKey string
	DatabaseURL     string
	VoicesPath      string
	Verbose         bool
}

// Load reads .env (if present) and resolves settings from the environment.
// A missing .env file is not an error.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	s := &Settings{
		GeminiAPIKey:    firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		VoicesPath:      os.Getenv("VOICES_PATH"),
	}
	if v := os.Getenv("VERBOSE"); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid VERBOSE value %q: %w", v, err)
		}
		s.Verbose = verbose
	}
	return s, nil
}

// Validate checks that at least one generation backend is configured.
func (s *Settings) Validate() error {
	if s.GeminiAPIKey == "" && s.AnthropicAPIKey == "" {
		return fmt.Errorf("no API key configured: set GEMINI_API_KEY or ANTHROPIC_API_KEY")
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
