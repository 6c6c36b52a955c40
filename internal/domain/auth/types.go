package auth

// Package auth contains domain-level types for authentication, sessions and
// route access. It is pure and free of framework/adapter concerns.

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned by session stores when no live session exists for an id.
var ErrSessionNotFound = errors.New("session not found")

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // IdP subject, e.g. "auth0|64f0c..."
	Name      string
	Email     string
	Picture   string
	ExpiresAt time.Time // absolute expiry from the ID token
	Token     Token
}

// Token is the bearer token set issued by the IdP for the API audience.
// Refreshing it is the provider client's job; we only carry it between requests.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Valid reports whether the access token is present and not about to expire.
func (t Token) Valid(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return now.Add(tokenExpiryLeeway).Before(t.Expiry)
}

// CanRefresh reports whether a refresh token is available.
func (t Token) CanRefresh() bool { return t.RefreshToken != "" }

const tokenExpiryLeeway = 10 * time.Second

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (uuid).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture,omitempty"`
	Token     Token     `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	// ProfileCreated is set once the API user record has been created for this login.
	ProfileCreated bool `json:"profile_created"`
}

// Expired reports whether the session is past its absolute expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// DisplayName returns the name shown in the navigation menu.
func (s Session) DisplayName() string {
	if s.Email != "" {
		return s.Email
	}
	return s.Name
}
