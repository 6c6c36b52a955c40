package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionResolver looks up the session behind a session cookie.
type SessionResolver interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

var errNoSessionCookie = errors.New("no session cookie")

// resolveSession returns the session for the request cookie. A missing cookie
// and a missing session both report domainauth.ErrSessionNotFound.
func resolveSession(r *http.Request, sessions SessionResolver) (*domainauth.Session, error) {
	c, err := r.Cookie(CookieSession)
	if err != nil || c.Value == "" {
		return nil, errors.Join(domainauth.ErrSessionNotFound, errNoSessionCookie)
	}
	if sessions == nil {
		return nil, domainauth.ErrSessionNotFound
	}
	return sessions.GetSession(r.Context(), c.Value)
}

// OptionalAuth adds the session to the request context when one exists.
// Lookup failures leave the request anonymous.
func OptionalAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session, err := resolveSession(r, sessions); err == nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// Downstream handlers use it to choose between HTML and JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest treats /api/ and /static/ as non-browser, htmx as browser,
// and otherwise looks for text/html in Accept (a missing header counts as browser).
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// GuardConfig configures RequireAuthBrowser.
type GuardConfig struct {
	Sessions SessionResolver
	// Routes defaults to domainauth.DefaultProtectedRoutes.
	Routes *domainauth.ProtectedRoutes
	// Placeholder renders the neutral view shown while the session state is
	// unknown. Defaults to a plain 503.
	Placeholder  http.Handler
	CookieDomain string
	Logger       *slog.Logger
}

// RequireAuthBrowser gates protected routes on a route guard resolved from the
// session store. A live session grants access. A missing or expired session
// denies it: browsers are redirected (303) to the login page, htmx requests
// get HX-Redirect and API requests a 401. A store failure leaves the guard
// unknown and only the placeholder is rendered.
func RequireAuthBrowser(cfg GuardConfig) func(http.Handler) http.Handler {
	routes := domainauth.DefaultProtectedRoutes()
	if cfg.Routes != nil {
		routes = *cfg.Routes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	placeholder := cfg.Placeholder
	if placeholder == nil {
		placeholder = http.HandlerFunc(defaultPlaceholder)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard := domainauth.NewGuard(routes, PathLogin)
			session, err := resolveSession(r, cfg.Sessions)
			switch {
			case err == nil:
				guard.Resolve(true)
			case errors.Is(err, domainauth.ErrSessionNotFound):
				guard.Resolve(false)
				if !errors.Is(err, errNoSessionCookie) {
					clearCookie(w, r, cookieParams{Name: CookieSession, Domain: cfg.CookieDomain})
				}
			default:
				logger.WarnContext(r.Context(), "session lookup failed", "error", err, "path", r.URL.Path)
			}

			ctx := setGuardStateInContext(r.Context(), guard.State())
			ctx = SetSessionInContext(ctx, session)
			r = r.WithContext(ctx)

			decision := guard.Decide(r.URL.RequestURI())
			switch decision.Action {
			case domainauth.ActionRender:
				next.ServeHTTP(w, r)
			case domainauth.ActionRedirect:
				denyRequest(w, r, decision.Navigate)
			default:
				if IsBrowserRequest(r) {
					placeholder.ServeHTTP(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusServiceUnavailable,
					ErrCode: "session_unavailable",
					Err:     errors.New("session state could not be resolved"),
				})
			}
		})
	}
}

// denyRequest sends an unauthenticated request to the login navigation.
func denyRequest(w http.ResponseWriter, r *http.Request, nav domainauth.Navigation) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	if IsHTMX(r) {
		SetHXRedirect(w, nav.To)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, nav.To, http.StatusSeeOther)
}

func defaultPlaceholder(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "5")
	http.Error(w, "Checking your session, please retry shortly.", http.StatusServiceUnavailable)
}
