package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/foodorder-ui/config"
	apperrors "github.com/target/foodorder-ui/internal/errors"
)

// InitLogger initializes the structured logger. Development mode logs text
// at debug level; everything else logs JSON at info.
func InitLogger(isDev bool) *slog.Logger {
	logger := newLogger(os.Stdout, isDev)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, isDev bool) *slog.Logger {
	if isDev {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// LoadConfig loads configuration from environment variables and a local
// .env file when present. A missing required setting is a ConfigMissing error.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	return parseConfig()
}

func parseConfig() (config.AppConfig, error) {
	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, apperrors.ConfigMissing(err)
	}
	return cfg, nil
}
