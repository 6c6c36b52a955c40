package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/foodorder-ui/config"
	redisadapter "github.com/target/foodorder-ui/internal/adapters/redis"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	apperrors "github.com/target/foodorder-ui/internal/errors"
)

type fakeStore struct {
	sessions map[string]domainauth.Session
	listErr  error
	closed   bool
}

func newFakeStore(sessions ...domainauth.Session) *fakeStore {
	f := &fakeStore{sessions: map[string]domainauth.Session{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeStore) List(context.Context) ([]redisadapter.SessionSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]redisadapter.SessionSummary, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, redisadapter.SessionSummary{
			ID: s.ID, UserID: s.UserID, Email: s.Email, ExpiresAt: s.ExpiresAt, ProfileCreated: s.ProfileCreated,
		})
	}
	// Deterministic order for assertions.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ExpiresAt.Before(out[j-1].ExpiresAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

type harness struct {
	ctx   *commandContext
	out   *bytes.Buffer
	err   *bytes.Buffer
	store *fakeStore
}

func newHarness(store *fakeStore, stdin string) *harness {
	h := &harness{out: &bytes.Buffer{}, err: &bytes.Buffer{}, store: store}
	h.ctx = &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:    h.out,
		Err:    h.err,
		In:     strings.NewReader(stdin),
		Sessions: func(*commandContext) (sessionAdmin, func() error, error) {
			return store, func() error { store.closed = true; return nil }, nil
		},
	}
	return h
}

func session(id, email string, expiresIn time.Duration) domainauth.Session {
	return domainauth.Session{
		ID:        id,
		UserID:    "auth0|" + id,
		Email:     email,
		ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(expiresIn),
	}
}

func TestSessionsList(t *testing.T) {
	h := newHarness(newFakeStore(
		session("s1", "ann@example.com", 2*time.Hour),
		session("s2", "bob@example.com", time.Hour),
	), "")

	require.NoError(t, runSessionsList(h.ctx, nil))

	out := h.out.String()
	assert.Contains(t, out, "ID  ")
	assert.Contains(t, out, "bob@example.com")
	assert.Less(t, strings.Index(out, "s2"), strings.Index(out, "s1"), "ordered by expiry")
	assert.Contains(t, out, "Showing 2 of 2 sessions.")
	assert.Contains(t, out, "pending")
	assert.True(t, h.store.closed)
}

func TestSessionsList_FilterAndJSON(t *testing.T) {
	h := newHarness(newFakeStore(
		session("s1", "ann@example.com", 2*time.Hour),
		session("s2", "bob@example.com", time.Hour),
	), "")

	require.NoError(t, runSessionsList(h.ctx, []string{"--email", "ANN", "--json"}))

	var got []sessionJSON
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "auth0|s1", got[0].UserID)
	assert.NotContains(t, h.out.String(), "access")
}

func TestSessionsList_Empty(t *testing.T) {
	h := newHarness(newFakeStore(), "")
	require.NoError(t, runSessionsList(h.ctx, nil))
	assert.Equal(t, "No sessions found.\n", h.out.String())
}

func TestSessionsList_Errors(t *testing.T) {
	h := newHarness(newFakeStore(), "")
	require.ErrorContains(t, runSessionsList(h.ctx, []string{"--limit", "-1"}), "--limit")

	store := newFakeStore()
	store.listErr = errors.New("redis scan: boom")
	h = newHarness(store, "")
	require.ErrorContains(t, runSessionsList(h.ctx, nil), "list sessions")
}

func TestSessionRevoke(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		stdin       string
		wantErr     string
		wantDeleted bool
		wantOut     string
	}{
		{name: "missing id", args: nil, wantErr: "--id is required"},
		{name: "unknown session", args: []string{"--id", "nope", "--yes"}, wantErr: `session "nope" not found`},
		{name: "dry run", args: []string{"--id", "s1", "--dry-run"}, wantOut: "[dry-run] would revoke session s1"},
		{name: "confirmed", args: []string{"--id", "s1"}, stdin: "y\n", wantDeleted: true, wantOut: "Revoked session s1"},
		{name: "declined", args: []string{"--id", "s1"}, stdin: "n\n", wantErr: "aborted by user"},
		{name: "no input", args: []string{"--id", "s1"}, stdin: "", wantErr: "aborted by user"},
		{name: "yes flag", args: []string{"--id", "s1", "--yes"}, wantDeleted: true, wantOut: "ann@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(newFakeStore(session("s1", "ann@example.com", time.Hour)), tt.stdin)

			err := runSessionRevoke(h.ctx, tt.args)

			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			_, stillThere := h.store.sessions["s1"]
			assert.Equal(t, tt.wantDeleted, !stillThere)
			assert.Contains(t, h.out.String(), tt.wantOut)
		})
	}
}

func TestConfigCheck(t *testing.T) {
	h := newHarness(newFakeStore(), "")
	h.ctx.Config = config.AppConfig{
		API:  config.APIConfig{BaseURL: "https://api.example.com", Timeout: 10 * time.Second},
		Auth: config.AuthConfig{Mode: config.AuthModeOAuth, Auth0: config.Auth0Config{ClientSecret: "shh"}},
		Redis: config.RedisConfig{URI: "redis://user:pw@cache:6379"},
	}
	h.ctx.ConfigErr = apperrors.ConfigMissing(&config.MissingError{Vars: []string{"AUTH0_DOMAIN", "AUTH0_CLIENT_ID"}})

	err := runConfigCheck(h.ctx, nil)

	require.ErrorIs(t, err, errCheckFailed)
	out := h.out.String()
	assert.Contains(t, out, "api base url")
	assert.Contains(t, out, "https://api.example.com")
	assert.Contains(t, out, "(set)")
	assert.NotContains(t, out, "shh")
	assert.NotContains(t, out, "pw@")
	assert.Contains(t, out, "redis://***@cache:6379")
	assert.Contains(t, h.err.String(), "missing AUTH0_DOMAIN")
	assert.Contains(t, h.err.String(), "missing AUTH0_CLIENT_ID")
}

func TestConfigCheck_OKWithPing(t *testing.T) {
	h := newHarness(newFakeStore(), "")

	require.NoError(t, runConfigCheck(h.ctx, []string{"--ping"}))
	assert.Contains(t, h.out.String(), "session store reachable")
	assert.Contains(t, h.out.String(), "configuration OK")
	assert.True(t, h.store.closed)

	h = newHarness(newFakeStore(), "")
	h.ctx.Sessions = func(*commandContext) (sessionAdmin, func() error, error) {
		return nil, nil, errors.New("connect redis: refused")
	}
	require.ErrorIs(t, runConfigCheck(h.ctx, []string{"--ping"}), errCheckFailed)
	assert.Contains(t, h.err.String(), "session store unreachable")
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "redis://***@cache:6379", redactURI("redis://u:p@cache:6379"))
	assert.Equal(t, "***@cache:6379", redactURI("p@cache:6379"))
	assert.Equal(t, "cache:6379", redactURI("cache:6379"))
}

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	for name := range commands() {
		assert.Contains(t, buf.String(), name)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, 2, run(context.Background(), logger, nil))
	assert.Equal(t, 2, run(context.Background(), logger, []string{"db-reset"}))
}
