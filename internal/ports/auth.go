package ports

// Package ports defines interfaces (hexagonal ports) for auth, API and
// notification behavior. Implementations live in internal/adapters;
// orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// BeginResult is what the caller must keep until the callback arrives.
type BeginResult struct {
	AuthURL string
	State   string
	Nonce   string
	// Verifier is the PKCE code verifier; empty when the provider does not use PKCE.
	Verifier string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, a nonce,
	// and a PKCE verifier.
	Begin(ctx context.Context, in BeginInput) (BeginResult, error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity
	// together with the API token set.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)

	// Refresh obtains a fresh token set using the refresh token in tok.
	Refresh(ctx context.Context, tok domainauth.Token) (domainauth.Token, error)

	// LogoutURL returns the IdP logout URL that sends the browser to returnTo, or "" when unsupported.
	LogoutURL(returnTo string) string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code     string
	State    string
	Nonce    string
	Verifier string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// TokenSource yields a bearer token for the current session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }
