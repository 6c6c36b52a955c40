package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/foodorder-ui/config"
	"github.com/target/foodorder-ui/internal/adapters/apiclient"
	redisadapter "github.com/target/foodorder-ui/internal/adapters/redis"
	"github.com/target/foodorder-ui/internal/observability/statsd"
	"github.com/target/foodorder-ui/internal/service"
	"golang.org/x/sync/errgroup"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Sessions *redisadapter.SessionStore
	Profiles *service.ProfileService
	Redis    redis.UniversalClient
	Metrics  statsd.Sink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the session provider, the ordering API client and the
// profile hooks factory.
func NewServices(deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	metrics := buildMetrics(logger, cfg.Observability.Metrics)

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		Session:     cfg.Session,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:           cfg.API.BaseURL,
		HTTPClient:        &http.Client{},
		Timeout:           cfg.API.Timeout,
		MaxErrorBodyBytes: cfg.API.MaxErrorBodyBytes,
		Logger:            logger,
		Metrics:           metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("api client: %w", err)
	}

	return ServiceContainer{
		Auth:     auth.Service,
		Sessions: auth.Store,
		Profiles: service.NewProfileService(service.ProfileServiceOptions{Client: client, Logger: logger}),
		Redis:    deps.RedisClient,
		Metrics:  metrics,
	}, nil
}

// Close releases the metrics socket and the Redis connection.
func (c ServiceContainer) Close() error {
	var errs []error
	if closer, ok := c.Metrics.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}

// ServiceOrchestrationConfig contains what the web process runs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown serves HTTP until SIGINT or SIGTERM arrives or the
// server fails, then drains in-flight requests.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runServices(ctx, cfg)
}

func runServices(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := NewHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownWaitTimeout)
		defer cancel()
		return ShutdownHTTPServer(ShutdownConfig{Context: shutdownCtx, Server: server, Logger: logger})
	})
	return g.Wait()
}
