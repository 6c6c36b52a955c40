// Package redis provides Redis-backed adapters for foodorder-ui.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	apperrors "github.com/target/foodorder-ui/internal/errors"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "session:"

// ErrNotFound is returned when a session is not found or has expired.
var ErrNotFound = domainauth.ErrSessionNotFound

// notFound is returned for missing and expired sessions. It matches both
// ErrNotFound and apperrors.IsNotFound.
func notFound() error {
	return apperrors.Wrap(ErrNotFound, apperrors.ErrCodeNotFound, "load session")
}

// SessionStore keeps sessions as JSON values whose TTL tracks Session.ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a Redis session store using DefaultKeyPrefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, DefaultKeyPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) key(id string) string { return s.prefix + id }

// Save writes the session, replacing any previous value for the same ID.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return apperrors.Internal("session ID cannot be empty")
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return apperrors.Internal("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal session")
	}

	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "redis set")
	}
	return nil
}

// Get loads a session. Missing and expired sessions yield ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, notFound()
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, notFound()
		}
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "redis get")
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "unmarshal session")
	}

	if sess.Expired(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, notFound()
	}

	return sess, nil
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "redis del")
	}
	return nil
}

// SessionSummary is the operator view of a stored session. Tokens are never included.
type SessionSummary struct {
	ID             string
	UserID         string
	Email          string
	ExpiresAt      time.Time
	ProfileCreated bool
}

// List scans all live sessions under the store prefix, ordered by expiry.
func (s *SessionStore) List(ctx context.Context) ([]SessionSummary, error) {
	var out []SessionSummary

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), s.prefix)
		sess, err := s.Get(ctx, id)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, SessionSummary{
			ID:             sess.ID,
			UserID:         sess.UserID,
			Email:          sess.Email,
			ExpiresAt:      sess.ExpiresAt,
			ProfileCreated: sess.ProfileCreated,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "redis scan")
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}
