package auth

import (
	"net/url"
	"strings"
)

// GuardState is the route guard's view of the current session.
type GuardState int

const (
	// GuardUnknown means session resolution has not completed.
	GuardUnknown GuardState = iota
	// GuardDenied means the session resolved to unauthenticated.
	GuardDenied
	// GuardGranted means the session resolved to authenticated.
	GuardGranted
)

func (s GuardState) String() string {
	switch s {
	case GuardDenied:
		return "denied"
	case GuardGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// Action is what the router must do for a navigation.
type Action int

const (
	// ActionRender renders the requested view.
	ActionRender Action = iota
	// ActionPlaceholder renders a neutral placeholder and no protected content.
	ActionPlaceholder
	// ActionRedirect navigates away from the requested view.
	ActionRedirect
)

// Decision is the guard's verdict for a single path.
type Decision struct {
	Action   Action
	Navigate Navigation
}

// ProtectedRoutes is the set of paths that require a Granted guard.
// A path matches an entry exactly or as a sub-path ("/user-profile/edit").
type ProtectedRoutes struct {
	paths []string
}

// NewProtectedRoutes builds a route set from the given paths.
func NewProtectedRoutes(paths ...string) ProtectedRoutes {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return ProtectedRoutes{paths: cleaned}
}

// DefaultProtectedRoutes are the views that need a signed-in user.
func DefaultProtectedRoutes() ProtectedRoutes {
	return NewProtectedRoutes("/order-status", "/user-profile", "/manage-restaurant")
}

// IsProtected reports whether path requires authentication.
func (p ProtectedRoutes) IsProtected(path string) bool {
	for _, prefix := range p.paths {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Paths returns a copy of the protected path list.
func (p ProtectedRoutes) Paths() []string {
	return append([]string(nil), p.paths...)
}

// Guard gates protected views on the resolved session state. It starts
// Unknown and settles exactly once. A Guard belongs to one navigation and is
// not safe for concurrent use.
type Guard struct {
	routes    ProtectedRoutes
	loginPath string
	state     GuardState
	settled   bool
}

// NewGuard returns an Unknown guard. Denied navigations are sent to loginPath
// with the original path carried as redirect_uri.
func NewGuard(routes ProtectedRoutes, loginPath string) *Guard {
	return &Guard{routes: routes, loginPath: loginPath}
}

// State returns the current guard state.
func (g *Guard) State() GuardState { return g.state }

// Resolve settles the guard once session resolution completes. Later calls
// leave the state unchanged and return it.
func (g *Guard) Resolve(authenticated bool) GuardState {
	if g.settled {
		return g.state
	}
	g.settled = true
	if authenticated {
		g.state = GuardGranted
	} else {
		g.state = GuardDenied
	}
	return g.state
}

// Decide returns the action for a navigation to requestURI.
func (g *Guard) Decide(requestURI string) Decision {
	path := requestURI
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !g.routes.IsProtected(path) {
		return Decision{Action: ActionRender}
	}
	switch g.state {
	case GuardGranted:
		return Decision{Action: ActionRender}
	case GuardDenied:
		return Decision{Action: ActionRedirect, Navigate: g.loginNavigation(requestURI)}
	default:
		return Decision{Action: ActionPlaceholder}
	}
}

func (g *Guard) loginNavigation(requestURI string) Navigation {
	if g.loginPath == "" {
		return Navigation{To: "/"}
	}
	ret := SafeReturnPath(requestURI)
	if ret == "" {
		return Navigation{To: g.loginPath}
	}
	return Navigation{To: g.loginPath + "?redirect_uri=" + url.QueryEscape(ret)}
}
