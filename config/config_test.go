package config

import (
	"errors"
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("AUTH0_DOMAIN", "tenant.eu.auth0.com")
	t.Setenv("AUTH0_CLIENT_ID", "client-123")
	t.Setenv("AUTH0_CALLBACK_URL", "http://localhost:8080/auth/callback")
	t.Setenv("AUTH0_AUDIENCE", "food-api")
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_MODE", "OAUTH")
	t.Setenv("AUTH0_CLIENT_SECRET", "super-secret")
	t.Setenv("DEV_AUTH_EMAIL", "dev@food.test")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode: AuthModeOAuth,
		Auth0: Auth0Config{
			Domain:       "tenant.eu.auth0.com",
			ClientID:     "client-123",
			ClientSecret: "super-secret",
			CallbackURL:  "http://localhost:8080/auth/callback",
			Audience:     "food-api",
			Scope:        "openid profile email offline_access",
		},
		DevAuth: DevAuthConfig{
			UserID: "auth0|dev-user",
			Email:  "dev@food.test",
			Name:   "Dev User",
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAppConfig_InvalidAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "saml")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatalf("expected error for invalid auth mode")
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		missing []string
	}{
		{
			name: "all present",
			cfg: AppConfig{
				API: APIConfig{BaseURL: "https://api.example.com"},
				Auth: AuthConfig{Mode: AuthModeOAuth, Auth0: Auth0Config{
					Domain: "d", ClientID: "c", CallbackURL: "u", Audience: "a",
				}},
			},
		},
		{
			name:    "everything missing",
			cfg:     AppConfig{Auth: AuthConfig{Mode: AuthModeOAuth}},
			missing: []string{"API_BASE_URL", "AUTH0_DOMAIN", "AUTH0_CLIENT_ID", "AUTH0_CALLBACK_URL", "AUTH0_AUDIENCE"},
		},
		{
			name: "audience missing",
			cfg: AppConfig{
				API: APIConfig{BaseURL: "https://api.example.com"},
				Auth: AuthConfig{Mode: AuthModeOAuth, Auth0: Auth0Config{
					Domain: "d", ClientID: "c", CallbackURL: "u",
				}},
			},
			missing: []string{"AUTH0_AUDIENCE"},
		},
		{
			name:    "mock mode still needs api",
			cfg:     AppConfig{Auth: AuthConfig{Mode: AuthModeMock}},
			missing: []string{"API_BASE_URL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var me *MissingError
			if !errors.As(err, &me) {
				t.Fatalf("expected MissingError, got %v", err)
			}
			if !reflect.DeepEqual(me.Vars, tt.missing) {
				t.Fatalf("missing vars: expected %v, got %v", tt.missing, me.Vars)
			}
		})
	}
}

func TestAuth0Config_IssuerURL(t *testing.T) {
	tests := map[string]string{
		"":                              "",
		"tenant.auth0.com":              "https://tenant.auth0.com/",
		"https://tenant.auth0.com":      "https://tenant.auth0.com/",
		"https://tenant.auth0.com/":     "https://tenant.auth0.com/",
		"http://localhost:9999/issuer/": "http://localhost:9999/issuer/",
	}
	for in, want := range tests {
		if got := (Auth0Config{Domain: in}).IssuerURL(); got != want {
			t.Errorf("IssuerURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTTPConfig_SanitizeCookieDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"localhost", "localhost"},
		{".food.example.com", "example.com"},
		{"app.food.example.co.uk", "example.co.uk"},
		{"  Example.COM ", "example.com"},
	}
	for _, tt := range tests {
		h := HTTPConfig{CookieDomain: tt.in}
		h.Sanitize()
		if h.CookieDomain != tt.want {
			t.Errorf("cookie domain %q: expected %q, got %q", tt.in, tt.want, h.CookieDomain)
		}
	}
}

func TestAPIConfig_Sanitize(t *testing.T) {
	a := APIConfig{BaseURL: " https://api.example.com/ ", Timeout: -1}
	a.Sanitize()
	if a.BaseURL != "https://api.example.com" {
		t.Fatalf("expected trimmed base url, got %q", a.BaseURL)
	}
	if a.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", a.Timeout)
	}
}

func TestAppConfig_DetectDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	var cfg AppConfig
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatalf("expected dev mode from NODE_ENV")
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}
