package oidc

// Package oidc provides the Auth0 (OIDC/OAuth2) authentication adapter.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/ports"
	"golang.org/x/oauth2"
)

// Provider implements the AuthProvider interface against an Auth0 tenant.
type Provider struct {
	config     *oauth2.Config
	audience   string
	issuer     string
	logoutURL  string
	httpClient *http.Client

	// go-oidc provider and verifier
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	// Issuer is the tenant URL, e.g. "https://tenant.eu.auth0.com/".
	Issuer       string
	ClientID     string
	ClientSecret string // optional; public clients rely on PKCE alone
	RedirectURL  string
	Audience     string
	Scope        string
	LogoutURL    string       // optional override of the tenant logout endpoint
	HTTPClient   *http.Client // Optional, defaults to a client with a 30s timeout
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider. It fetches the discovery document once.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.Audience == "" {
		return nil, errors.New("audience is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		audience:   config.Audience,
		issuer:     config.Issuer,
		logoutURL:  config.LogoutURL,
		httpClient: httpClient,
	}

	ctx := p.clientContext(context.Background())
	op, err := gooidc.NewProvider(ctx, config.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	scope := config.Scope
	if strings.TrimSpace(scope) == "" {
		scope = "openid profile email"
	}
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// Begin builds the Auth0 authorize URL with state, nonce, audience and a PKCE challenge.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (ports.BeginResult, error) {
	if in.RedirectURL == "" {
		return ports.BeginResult{}, errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate nonce: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	// redirect_uri comes from the configured RedirectURL; Auth0 requires an exact match
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("audience", p.audience),
		oauth2.S256ChallengeOption(verifier),
	)

	return ports.BeginResult{AuthURL: authURL, State: state, Nonce: nonce, Verifier: verifier}, nil
}

// Exchange trades the authorization code for tokens and verifies the ID token.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = p.clientContext(ctx)
	var opts []oauth2.AuthCodeOption
	if in.Verifier != "" {
		opts = append(opts, oauth2.VerifierOption(in.Verifier))
	}
	token, err := p.config.Exchange(ctx, in.Code, opts...)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, expiresAt, err := p.verifyIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
	}

	if claims.Email == "" {
		if fillErr := p.fillFromUserInfo(ctx, token, &claims); fillErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", fillErr)
		}
	}

	return domainauth.Identity{
		UserID:    claims.Sub,
		Name:      firstNonEmpty(claims.Name, claims.Nickname, claims.Email),
		Email:     claims.Email,
		Picture:   claims.Picture,
		ExpiresAt: expiresAt,
		Token:     toDomainToken(token),
	}, nil
}

// Refresh asks the token endpoint for a new access token using the refresh token.
func (p *Provider) Refresh(ctx context.Context, tok domainauth.Token) (domainauth.Token, error) {
	if tok.RefreshToken == "" {
		return domainauth.Token{}, errors.New("no refresh token")
	}
	// An expiry in the past forces the token source to refresh.
	src := p.config.TokenSource(p.clientContext(ctx), &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       time.Unix(1, 0),
	})
	fresh, err := src.Token()
	if err != nil {
		return domainauth.Token{}, fmt.Errorf("refresh token: %w", err)
	}
	return toDomainToken(fresh), nil
}

// LogoutURL returns the Auth0 logout endpoint that redirects back to returnTo.
func (p *Provider) LogoutURL(returnTo string) string {
	base := p.logoutURL
	if base == "" {
		base = strings.TrimRight(p.issuer, "/") + "/v2/logout"
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("client_id", p.config.ClientID)
	if returnTo != "" {
		q.Set("returnTo", returnTo)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// auth0Claims is the subset of Auth0 ID token / userinfo claims we use.
type auth0Claims struct {
	Sub      string `json:"sub"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
	Nonce    string `json:"nonce"`
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (auth0Claims, time.Time, error) {
	var c auth0Claims
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return c, time.Time{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return c, time.Time{}, fmt.Errorf("verify id_token: %w", err)
	}
	if claimsErr := idTok.Claims(&c); claimsErr != nil {
		return c, time.Time{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if expectedNonce != "" && c.Nonce != expectedNonce {
		return c, time.Time{}, errors.New("invalid nonce")
	}
	return c, idTok.Expiry, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, tok *oauth2.Token, c *auth0Claims) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var info auth0Claims
	if claimsErr := ui.Claims(&info); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}
	fillMissingClaims(c, info)
	return nil
}

// fillMissingClaims copies userinfo values into c without overwriting ID token values.
func fillMissingClaims(c *auth0Claims, info auth0Claims) {
	if c.Sub == "" {
		c.Sub = info.Sub
	}
	if c.Email == "" {
		c.Email = info.Email
	}
	if c.Name == "" {
		c.Name = info.Name
	}
	if c.Nickname == "" {
		c.Nickname = info.Nickname
	}
	if c.Picture == "" {
		c.Picture = info.Picture
	}
}

func toDomainToken(tok *oauth2.Token) domainauth.Token {
	return domainauth.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
