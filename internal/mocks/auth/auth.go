package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.Notifier     = (*RecordingNotifier)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (ports.BeginResult, error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)
	RefreshFunc  func(ctx context.Context, tok domainauth.Token) (domainauth.Token, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	LogoutBase  string
	DefaultUser domainauth.Identity

	// Internal state tracking for deterministic behavior
	callCount    int
	RefreshCalls int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/authorize",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID: "auth0|mock-user-1",
		Name:   "Mock User",
		Email:  "mock.user@example.com",
		Token: domainauth.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (ports.BeginResult, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/authorize"
	}

	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return ports.BeginResult{
		AuthURL:  authURL,
		State:    fmt.Sprintf("%s-%d", statePrefix, m.callCount),
		Nonce:    fmt.Sprintf("%s-%d", noncePrefix, m.callCount),
		Verifier: fmt.Sprintf("verifier-%d", m.callCount),
	}, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default user with fresh expirations
	user := m.DefaultUser
	if user.UserID == "" {
		user = defaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	user.Token.Expiry = time.Now().Add(time.Hour)

	return user, nil
}

func (m *MockAuthProvider) Refresh(ctx context.Context, tok domainauth.Token) (domainauth.Token, error) {
	m.RefreshCalls++
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, tok)
	}
	if tok.RefreshToken == "" {
		return domainauth.Token{}, errors.New("no refresh token")
	}
	return domainauth.Token{
		AccessToken:  fmt.Sprintf("access-refreshed-%d", m.RefreshCalls),
		RefreshToken: tok.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (m *MockAuthProvider) LogoutURL(returnTo string) string {
	if m.LogoutBase == "" {
		return ""
	}
	return m.LogoutBase + "?returnTo=" + returnTo
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	// GetErr, when set, is returned by Get to simulate an unavailable store.
	GetErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[string]domainauth.Session)
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return domainauth.Session{}, m.GetErr
	}
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by mocks when a session is not present.
var ErrNotFound = domainauth.ErrSessionNotFound

// Notification is one recorded toast.
type Notification struct {
	Kind    string // "success" or "error"
	Message string
}

// RecordingNotifier records notifications in call order.
type RecordingNotifier struct {
	mu   sync.Mutex
	list []Notification
}

func (n *RecordingNotifier) Success(message string) { n.add("success", message) }

func (n *RecordingNotifier) Error(message string) { n.add("error", message) }

func (n *RecordingNotifier) add(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, Notification{Kind: kind, Message: message})
}

// All returns a copy of the recorded notifications.
func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.list...)
}
