package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config represents runtime configuration for the service.
type Config struct {
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	Addr         string        `env:"DOCCHAT_ADDR" default:":8090"`
	Model        string        `env:"DOCCHAT_MODEL" default:"gemini-2.5-flash"`
	DatabasePath string        `env:"DOCCHAT_DB" default:"./data/docchat.db"`
	StagingDir   string        `env:"DOCCHAT_STAGING" default:"./data/staging"`
	StagingTTL   time.Duration `env:"DOCCHAT_STAGING_TTL" default:"1h"`
	LogLevel     string        `env:"LOG_LEVEL" default:"info"`
	LogFormat    string        `env:"LOG_FORMAT" default:"text"`
}

// Load reads configuration from the environment, optionally seeded by a .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if cfg.StagingTTL <= 0 {
		return nil, errors.New("DOCCHAT_STAGING_TTL must be positive")
	}

	return &cfg, nil
}
