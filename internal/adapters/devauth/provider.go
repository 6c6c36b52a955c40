package devauth

// Package devauth provides a simple, config-driven AuthProvider for local development.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/ports"
)

// Config controls the dev auth provider behavior.
// UserID and Email are required.
type Config struct {
	UserID          string
	Email           string
	Name            string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.AuthProvider for local development.
// It short-circuits the OAuth flow by redirecting back to our own callback
// with locally generated state and nonce.
// Exchange ignores the code and returns the configured identity with a local token.
type Provider struct {
	mu              sync.Mutex
	identity        domainauth.Identity
	sessionDuration time.Duration
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID: cfg.UserID,
			Email:  cfg.Email,
			Name:   cfg.Name,
		},
		sessionDuration: dur,
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (ports.BeginResult, error) {
	state, err := randomString(24)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate nonce: %w", err)
	}
	// Our standard handler expects GET /auth/callback?code=...&state=...
	authURL := "/auth/callback?code=dev&state=" + url.QueryEscape(state)
	return ports.BeginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// Exchange ignores the provided code/state/nonce (validation handled by handler) and returns the dev identity.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	tok, err := p.newToken()
	if err != nil {
		return domainauth.Identity{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.identity
	id.ExpiresAt = time.Now().Add(p.sessionDuration)
	id.Token = tok
	return id, nil
}

// Refresh mints a new local token.
func (p *Provider) Refresh(_ context.Context, tok domainauth.Token) (domainauth.Token, error) {
	if tok.RefreshToken == "" {
		return domainauth.Token{}, errors.New("dev auth: no refresh token")
	}
	return p.newToken()
}

// LogoutURL is unsupported; the local session delete is the whole logout.
func (p *Provider) LogoutURL(string) string { return "" }

func (p *Provider) newToken() (domainauth.Token, error) {
	access, err := randomString(32)
	if err != nil {
		return domainauth.Token{}, fmt.Errorf("generate token: %w", err)
	}
	return domainauth.Token{
		AccessToken:  "dev-" + access,
		RefreshToken: "dev-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
