package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/ports"
	"golang.org/x/sync/singleflight"
)

const (
	defaultSessionTTL     = 8 * time.Hour
	defaultRefreshTimeout = 15 * time.Second
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider   ports.AuthProvider
	Sessions   ports.SessionStore
	SessionTTL time.Duration
	// RefreshTimeout bounds a shared token refresh. Defaults to 15s.
	RefreshTimeout time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// AuthService is the session provider: it drives the IdP login flow, owns
// session persistence, and hands out bearer tokens for the current session.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	ttl      time.Duration
	now      func() time.Time
	refresh  singleflight.Group

	refreshTimeout time.Duration
}

var errSessionExpired = fmt.Errorf("session expired: %w", domainauth.ErrSessionNotFound)

// NewAuthService constructs an AuthService. Provider and Sessions are required.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Provider == nil {
		return nil, apperrors.ConfigMissing(errors.New("auth provider is required"))
	}
	if opts.Sessions == nil {
		return nil, apperrors.ConfigMissing(errors.New("session store is required"))
	}
	s := &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		ttl:      opts.SessionTTL,
		now:      opts.Now,

		refreshTimeout: opts.RefreshTimeout,
	}
	if s.ttl <= 0 {
		s.ttl = defaultSessionTTL
	}
	if s.refreshTimeout <= 0 {
		s.refreshTimeout = defaultRefreshTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// BeginLoginResult holds the values the caller must keep until the callback.
type BeginLoginResult struct {
	AuthURL  string
	State    string
	Nonce    string
	Verifier string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	res, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL:  res.AuthURL,
		State:    res.State,
		Nonce:    res.Nonce,
		Verifier: res.Verifier,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
// ReturnTo is the app state captured at BeginLogin.
type CompleteLoginInput struct {
	Code     string
	State    string
	Nonce    string
	Verifier string
	ReturnTo string
}

// CompleteLoginResult carries the new session and where the browser goes next.
type CompleteLoginResult struct {
	Session  domainauth.Session
	Navigate domainauth.Navigation
}

// CompleteLogin exchanges the code for an identity and persists a session.
// It never redirects; the caller follows Navigate.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:     input.Code,
		State:    input.State,
		Nonce:    input.Nonce,
		Verifier: input.Verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	session := domainauth.Session{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		Name:      identity.Name,
		Email:     identity.Email,
		Picture:   identity.Picture,
		Token:     identity.Token,
		ExpiresAt: s.sessionExpiry(identity.Token),
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &CompleteLoginResult{
		Session:  session,
		Navigate: domainauth.AfterLogin(input.ReturnTo),
	}, nil
}

// sessionExpiry caps the session at the token expiry when the token cannot be refreshed.
func (s *AuthService) sessionExpiry(tok domainauth.Token) time.Time {
	exp := s.now().Add(s.ttl)
	if !tok.CanRefresh() && !tok.Expiry.IsZero() && tok.Expiry.Before(exp) {
		exp = tok.Expiry
	}
	return exp
}

// GetSession retrieves a live session by ID. Missing or expired sessions
// satisfy errors.Is(err, domainauth.ErrSessionNotFound).
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, domainauth.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.now()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// IsAuthenticated reports whether sessionID names a live session.
func (s *AuthService) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, err := s.GetSession(ctx, sessionID)
	return err == nil
}

// GetToken returns a usable access token for the session, refreshing it
// through the provider when it has expired. Every failure is AuthUnavailable.
func (s *AuthService) GetToken(ctx context.Context, sessionID string) (string, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return "", apperrors.AuthUnavailable(err)
	}
	if session.Token.Valid(s.now()) {
		return session.Token.AccessToken, nil
	}
	if !session.Token.CanRefresh() {
		return "", apperrors.AuthUnavailable(errors.New("access token expired"))
	}

	// Concurrent requests on one session share a single refresh so a rotating
	// refresh token is only spent once. The shared refresh is detached from the
	// first caller's cancellation; each caller still stops waiting on its own ctx.
	ch := s.refresh.DoChan(sessionID, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return s.refreshSession(rctx, sessionID)
	})
	select {
	case <-ctx.Done():
		return "", apperrors.AuthUnavailable(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", apperrors.AuthUnavailable(res.Err)
		}
		return res.Val.(string), nil
	}
}

func (s *AuthService) refreshSession(ctx context.Context, sessionID string) (string, error) {
	// Re-read: another caller may have refreshed while we waited.
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.Token.Valid(s.now()) {
		return session.Token.AccessToken, nil
	}

	tok, err := s.provider.Refresh(ctx, session.Token)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = session.Token.RefreshToken
	}
	session.Token = tok

	if err := s.sessions.Save(ctx, *session); err != nil {
		return "", fmt.Errorf("save refreshed session: %w", err)
	}
	return tok.AccessToken, nil
}

// TokenSource binds GetToken to one session for the API client.
func (s *AuthService) TokenSource(sessionID string) ports.TokenSource {
	return ports.TokenSourceFunc(func(ctx context.Context) (string, error) {
		return s.GetToken(ctx, sessionID)
	})
}

// MarkProfileCreated records that the API user record exists for this session.
func (s *AuthService) MarkProfileCreated(ctx context.Context, sessionID string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.ProfileCreated {
		return nil
	}
	session.ProfileCreated = true
	if err := s.sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout removes the session and returns the IdP logout URL for returnTo,
// or "" when the provider has none.
func (s *AuthService) Logout(ctx context.Context, sessionID, returnTo string) (string, error) {
	if sessionID != "" {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return "", fmt.Errorf("delete session: %w", err)
		}
	}
	return s.provider.LogoutURL(returnTo), nil
}
