package config

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public base URL of the application (e.g., "https://food.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// LoginRatePerMinute caps login attempts per client address. Zero disables the limit.
	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"30"`
}

// Sanitize normalises the cookie domain to its registrable domain so a
// value such as "app.food.example.co.uk" scopes cookies to "food.example.co.uk".
func (h *HTTPConfig) Sanitize() {
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	h.CookieDomain = normalizeCookieDomain(h.CookieDomain)
	if h.LoginRatePerMinute < 0 {
		h.LoginRatePerMinute = 0
	}
}

func normalizeCookieDomain(raw string) string {
	d := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
	if d == "" || d == "localhost" || !strings.Contains(d, ".") {
		return d
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(d)
	if err != nil {
		return d
	}
	return etld1
}
