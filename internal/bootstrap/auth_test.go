package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/foodorder-ui/config"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/observability/statsd"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// lazyRedis never dials until a command runs.
func lazyRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func mockAuth() config.AuthConfig {
	return config.AuthConfig{
		Mode:    config.AuthModeMock,
		DevAuth: config.DevAuthConfig{UserID: "auth0|dev", Email: "dev@example.com", Name: "Dev"},
	}
}

func TestBuildAuthService_RequiresRedis(t *testing.T) {
	_, err := BuildAuthService(AuthConfig{Auth: mockAuth(), Logger: discardLogger()})

	require.Error(t, err)
	assert.True(t, apperrors.IsConfigMissing(err))
}

func TestBuildAuthService_MockMode(t *testing.T) {
	bundle, err := BuildAuthService(AuthConfig{
		Auth:        mockAuth(),
		Session:     config.SessionConfig{TTL: time.Hour, KeyPrefix: "test-session:"},
		RedisClient: lazyRedis(t),
		Logger:      discardLogger(),
	})

	require.NoError(t, err)
	assert.NotNil(t, bundle.Service)
	assert.NotNil(t, bundle.Store)
}

func TestBuildAuthService_InvalidMockIdentity(t *testing.T) {
	auth := mockAuth()
	auth.DevAuth.Email = ""

	_, err := BuildAuthService(AuthConfig{Auth: auth, RedisClient: lazyRedis(t)})

	require.Error(t, err)
	assert.True(t, apperrors.IsConfigMissing(err))
}

func TestBuildAuthService_UnsupportedMode(t *testing.T) {
	_, err := BuildAuthService(AuthConfig{
		Auth:        config.AuthConfig{Mode: "saml"},
		RedisClient: lazyRedis(t),
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsConfigMissing(err))
}

func TestBuildMetrics(t *testing.T) {
	sink := buildMetrics(discardLogger(), config.ObservabilityMetricsConfig{Enabled: false})
	assert.IsType(t, statsd.Nop{}, sink)

	sink = buildMetrics(discardLogger(), config.ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: "127.0.0.1:8125",
		Prefix:        "foodorder",
	})
	client, ok := sink.(*statsd.Client)
	require.True(t, ok)
	assert.NoError(t, client.Close())
}
