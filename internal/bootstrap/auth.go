package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/foodorder-ui/config"
	"github.com/target/foodorder-ui/internal/adapters/devauth"
	"github.com/target/foodorder-ui/internal/adapters/oidc"
	redisadapter "github.com/target/foodorder-ui/internal/adapters/redis"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/ports"
	"github.com/target/foodorder-ui/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	Session     config.SessionConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// AuthBundle is the session provider and the store behind it.
type AuthBundle struct {
	Service *service.AuthService
	Store   *redisadapter.SessionStore
}

// BuildAuthService creates the session provider for the configured auth
// mode. The oauth mode talks to the Auth0 tenant; mock signs in a fixed
// local identity.
func BuildAuthService(cfg AuthConfig) (AuthBundle, error) {
	if cfg.RedisClient == nil {
		return AuthBundle{}, apperrors.ConfigMissing(errors.New("redis client not configured"))
	}
	store := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Session.KeyPrefix)

	provider, err := buildProvider(cfg)
	if err != nil {
		return AuthBundle{}, err
	}

	svc, err := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Sessions:   store,
		SessionTTL: cfg.Session.TTL,
	})
	if err != nil {
		return AuthBundle{}, fmt.Errorf("auth service: %w", err)
	}
	return AuthBundle{Service: svc, Store: store}, nil
}

//nolint:ireturn // the mode picks the concrete provider at runtime.
func buildProvider(cfg AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		if cfg.Logger != nil {
			cfg.Logger.Warn("mock auth enabled; every login signs in the dev identity",
				"user_id", cfg.Auth.DevAuth.UserID)
		}
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.Auth.DevAuth.UserID,
			Email:           cfg.Auth.DevAuth.Email,
			Name:            cfg.Auth.DevAuth.Name,
			SessionDuration: cfg.Session.TTL,
		})
		if err != nil {
			return nil, apperrors.ConfigMissing(err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		a0 := cfg.Auth.Auth0
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			Issuer:       a0.IssuerURL(),
			ClientID:     a0.ClientID,
			ClientSecret: a0.ClientSecret,
			RedirectURL:  a0.CallbackURL,
			Audience:     a0.Audience,
			Scope:        a0.Scope,
			LogoutURL:    a0.LogoutURL,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, apperrors.ConfigMissing(fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode))
	}
}
