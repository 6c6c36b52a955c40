package httpx

import (
	"context"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext retrieves the session from the request context.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

type guardKey struct{}

func setGuardStateInContext(ctx context.Context, state domainauth.GuardState) context.Context {
	return context.WithValue(ctx, guardKey{}, state)
}

// GuardStateFromContext returns the route guard state resolved for this request.
// Requests that never passed through the auth middleware report GuardUnknown.
func GuardStateFromContext(ctx context.Context) domainauth.GuardState {
	if s, ok := ctx.Value(guardKey{}).(domainauth.GuardState); ok {
		return s
	}
	return domainauth.GuardUnknown
}
