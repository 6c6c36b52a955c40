package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/auth/callback"}
	res, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/authorize", res.AuthURL)
	assert.Equal(t, "state-1", res.State)
	assert.Equal(t, "nonce-1", res.Nonce)
	assert.Equal(t, "verifier-1", res.Verifier)

	// Second call should increment counters
	res2, err2 := provider.Begin(ctx, input)
	require.NoError(t, err2)
	assert.Equal(t, "state-2", res2.State)
	assert.Equal(t, "nonce-2", res2.Nonce)
}

func TestMockAuthProvider_ExchangeAndRefresh(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	id, err := provider.Exchange(ctx, ports.ExchangeInput{Code: "c"})
	require.NoError(t, err)
	assert.Equal(t, "auth0|mock-user-1", id.UserID)
	assert.False(t, id.Token.Expiry.IsZero())

	tok, err := provider.Refresh(ctx, id.Token)
	require.NoError(t, err)
	assert.Equal(t, "access-refreshed-1", tok.AccessToken)

	_, err = provider.Refresh(ctx, domainauth.Token{AccessToken: "x"})
	assert.Error(t, err)
	assert.Equal(t, 2, provider.RefreshCalls)
}

func TestMockAuthProvider_LogoutURL(t *testing.T) {
	provider := NewMockAuthProvider()
	assert.Empty(t, provider.LogoutURL("/"))
	provider.LogoutBase = "https://mock-idp/v2/logout"
	assert.Equal(t, "https://mock-idp/v2/logout?returnTo=/", provider.LogoutURL("/"))
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.Session{}))
	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "s1", Email: "a@example.com"}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	store.GetErr = errors.New("redis down")
	_, err = store.Get(ctx, "s1")
	assert.EqualError(t, err, "redis down")
}

func TestRecordingNotifier(t *testing.T) {
	var n RecordingNotifier
	n.Error("Failed to fetch user")
	n.Success("user profile updated!")
	assert.Equal(t, []Notification{
		{Kind: "error", Message: "Failed to fetch user"},
		{Kind: "success", Message: "user profile updated!"},
	}, n.All())
}
