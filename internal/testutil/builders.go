package testutil

import (
	"time"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/domain/model"
)

// SessionBuilder provides a fluent interface for building sessions in tests.
type SessionBuilder struct {
	sess domainauth.Session
}

// NewSession creates a SessionBuilder with a valid, unexpired session.
func NewSession() *SessionBuilder {
	return &SessionBuilder{sess: domainauth.Session{
		ID:     "sess-1",
		UserID: "auth0|user-1",
		Name:   "Ann Example",
		Email:  "ann@example.com",
		Token: domainauth.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}}
}

// WithID sets the session ID.
func (b *SessionBuilder) WithID(id string) *SessionBuilder {
	b.sess.ID = id
	return b
}

// WithEmail sets the session email.
func (b *SessionBuilder) WithEmail(email string) *SessionBuilder {
	b.sess.Email = email
	return b
}

// WithToken replaces the token set.
func (b *SessionBuilder) WithToken(tok domainauth.Token) *SessionBuilder {
	b.sess.Token = tok
	return b
}

// WithExpiredToken makes the access token stale while keeping the refresh token.
func (b *SessionBuilder) WithExpiredToken() *SessionBuilder {
	b.sess.Token.Expiry = time.Now().Add(-time.Minute)
	return b
}

// WithExpiresAt sets the absolute session expiry.
func (b *SessionBuilder) WithExpiresAt(t time.Time) *SessionBuilder {
	b.sess.ExpiresAt = t
	return b
}

// WithProfileCreated marks the API user record as created.
func (b *SessionBuilder) WithProfileCreated() *SessionBuilder {
	b.sess.ProfileCreated = true
	return b
}

// Build returns the session.
func (b *SessionBuilder) Build() domainauth.Session {
	return b.sess
}

// NewProfile returns a fully populated profile.
func NewProfile() model.UserProfile {
	return model.UserProfile{
		ID:           "64f0c0ffee",
		Auth0ID:      "auth0|user-1",
		Email:        "ann@example.com",
		Name:         "Ann Example",
		AddressLine1: "1 High Street",
		City:         "London",
		Country:      "United Kingdom",
	}
}
