package auth

import (
	"net/url"
	"strings"
)

// FallbackPath is where a completed login lands when no return path was requested.
const FallbackPath = "/auth-callback"

// Navigation is an instruction for the router to send the browser to To.
// The auth layer returns it instead of redirecting on its own.
type Navigation struct {
	To string
}

// IsZero reports whether the navigation carries no destination.
func (n Navigation) IsZero() bool { return n.To == "" }

// AfterLogin returns where to go once the login exchange succeeds: the
// requested return path when it is a safe local path, otherwise FallbackPath.
func AfterLogin(returnTo string) Navigation {
	if p := SafeReturnPath(returnTo); p != "" {
		return Navigation{To: p}
	}
	return Navigation{To: FallbackPath}
}

// SafeReturnPath returns raw when it is a local absolute path that cannot be
// turned into an open redirect, or "" otherwise. Auth endpoints are rejected
// so a login never lands back on itself.
func SafeReturnPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	if u.Path == "/auth" || strings.HasPrefix(u.Path, "/auth/") {
		return ""
	}
	return u.RequestURI()
}
