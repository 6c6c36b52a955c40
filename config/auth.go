package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses Auth0 (OIDC) for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// Auth0Config contains the hosted identity provider settings.
type Auth0Config struct {
	Domain       string `env:"DOMAIN"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
	Audience     string `env:"AUDIENCE"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email offline_access"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// IssuerURL returns the OIDC issuer for the configured domain. A bare
// domain such as "tenant.eu.auth0.com" becomes "https://tenant.eu.auth0.com/".
func (c Auth0Config) IssuerURL() string {
	d := strings.TrimSpace(c.Domain)
	if d == "" {
		return ""
	}
	if !strings.HasPrefix(d, "http://") && !strings.HasPrefix(d, "https://") {
		d = "https://" + d
	}
	return strings.TrimRight(d, "/") + "/"
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string `env:"USER_ID" envDefault:"auth0|dev-user"`
	Email  string `env:"EMAIL"   envDefault:"dev@example.com"`
	Name   string `env:"NAME"    envDefault:"Dev User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// Auth0 configuration (used when Mode=oauth).
	Auth0 Auth0Config `envPrefix:"AUTH0_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize trims whitespace from identity provider settings.
func (a *AuthConfig) Sanitize() {
	a.Auth0.Domain = strings.TrimSpace(a.Auth0.Domain)
	a.Auth0.ClientID = strings.TrimSpace(a.Auth0.ClientID)
	a.Auth0.CallbackURL = strings.TrimSpace(a.Auth0.CallbackURL)
	a.Auth0.Audience = strings.TrimSpace(a.Auth0.Audience)
	a.Auth0.LogoutURL = strings.TrimSpace(a.Auth0.LogoutURL)
}

func (a *AuthConfig) missing() []string {
	if a.Mode == AuthModeMock {
		return nil
	}
	var out []string
	if a.Auth0.Domain == "" {
		out = append(out, "AUTH0_DOMAIN")
	}
	if a.Auth0.ClientID == "" {
		out = append(out, "AUTH0_CLIENT_ID")
	}
	if a.Auth0.CallbackURL == "" {
		out = append(out, "AUTH0_CALLBACK_URL")
	}
	if a.Auth0.Audience == "" {
		out = append(out, "AUTH0_AUDIENCE")
	}
	return out
}
