package config

import (
	"strings"
	"time"
)

const defaultAPITimeout = 10 * time.Second

// APIConfig configures the authenticated client for the ordering API.
type APIConfig struct {
	// BaseURL is the ordering API root, e.g. "https://api.example.com".
	BaseURL string `env:"API_BASE_URL"`

	// Timeout bounds each API call including token acquisition.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	// MaxErrorBodyBytes caps how much of a failed response body is logged.
	MaxErrorBodyBytes int64 `env:"API_MAX_ERROR_BODY_BYTES" envDefault:"4096"`
}

// Sanitize trims the base URL and enforces a positive timeout.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = defaultAPITimeout
	}
	if a.MaxErrorBodyBytes <= 0 {
		a.MaxErrorBodyBytes = 4096
	}
}

func (a *APIConfig) missing() []string {
	if a.BaseURL == "" {
		return []string{"API_BASE_URL"}
	}
	return nil
}
