package httpx

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	foodorder "github.com/target/foodorder-ui"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/observability/statsd"
)

// RouterAuth is the session provider surface the router wires into handlers
// and middleware.
type RouterAuth interface {
	AuthServiceInterface
	SessionTokens
}

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     RouterAuth
	Profiles ProfileHooksFactory
	// Health is pinged by /healthz; nil reports healthy.
	Health Pinger
	// Routes overrides the protected route set.
	Routes *domainauth.ProtectedRoutes
	// TemplateFS overrides the template source. Defaults to the embedded
	// templates, or the on-disk ones in dev mode.
	TemplateFS   fs.FS
	CookieDomain string
	BaseURL      string
	IsDev        bool         // Development mode flag for hot reloading, etc.
	Logger       *slog.Logger // Logger for template and HTTP errors (optional)
	Metrics      statsd.Sink  // optional
	// LoginRate limits /auth/login and /auth/callback per client; zero PerMinute disables it.
	LoginRate RateLimitConfig
}

func (s RouterServices) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	health := healthHandler(services.Health, services.logger())
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	// Static assets at /static
	// Dev mode: serve from disk for hot reloading
	// Prod mode: serve from embedded FS
	mux.Handle("GET /static/", staticWithFallback(services.IsDev, services.logger()))

	uiHandlers := setupUIHandlers(services)
	if services.Auth != nil {
		authHandlers := &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			BaseURL:      services.BaseURL,
			Logger:       services.Logger,
			Metrics:      services.Metrics,
		}
		registerAuthRoutes(mux, authHandlers, services)
	}
	if uiHandlers != nil {
		registerUIRoutes(mux, uiHandlers, services)
	}

	// Wrap with NotFound handler and browser detection middleware
	handler := &notFoundHandler{
		mux:        mux,
		uiHandlers: uiHandlers,
	}
	return BrowserDetection()(handler)
}

// setupUIHandlers builds the template renderer and the UI handlers. It
// returns nil when templates cannot be parsed, leaving only API routes.
func setupUIHandlers(services RouterServices) *UIHandlers {
	templateFS := services.TemplateFS
	if templateFS == nil {
		templateFS = defaultTemplateFS(services.IsDev, services.logger())
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		Logger:     services.Logger,
	})
	if err != nil {
		services.logger().Error("failed to create template renderer", slog.Any("error", err))
		return nil
	}

	h := &UIHandlers{
		T:            tr,
		Profiles:     services.Profiles,
		CookieDomain: services.CookieDomain,
		IsDev:        services.IsDev,
		Logger:       services.Logger,
	}
	if services.Auth != nil {
		h.Sessions = services.Auth
	}
	return h
}

func defaultTemplateFS(isDev bool, logger *slog.Logger) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	templateFS, err := fs.Sub(foodorder.TemplateFS, "frontend/templates")
	if err != nil {
		logger.Warn("failed to create sub-filesystem for templates; falling back to disk", "error", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return templateFS
}

func staticWithFallback(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		// Dev mode: serve from disk for hot reloading
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}

	// Production mode: serve from embedded FS
	staticSub, err := fs.Sub(foodorder.StaticFS, "frontend/static")
	if err != nil {
		logger.Warn("failed to create sub-filesystem for static assets", "error", err)
		// Fallback to disk serving if embed fails
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

// Content-hashed filenames including optional .map, e.g. app.abc123de.js.
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, services RouterServices) {
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})
	limit := NewRateLimiter(services.LoginRate).Middleware
	mux.Handle("GET /auth/login", limit(http.HandlerFunc(h.Login)))
	mux.Handle("GET /auth/callback", limit(http.HandlerFunc(h.Callback)))
	mux.Handle("POST /auth/logout", csrf(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("GET /auth/status", h.Status)
}

// registerUIRoutes wires the public and protected pages. Every UI route gets
// a CSRF token so forms and htmx requests can echo it back.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, services RouterServices) {
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})

	public := func(next http.HandlerFunc) http.Handler { return csrf(next) }
	if services.Auth != nil {
		optional := OptionalAuth(services.Auth)
		public = func(next http.HandlerFunc) http.Handler { return csrf(optional(next)) }
	}

	mux.Handle("GET /{$}", public(h.Home))
	mux.Handle("GET /search", public(h.SearchSubmit))
	mux.Handle("GET /search/{city}", public(h.Search))
	mux.Handle("GET /detail/{restaurantId}", public(h.Detail))
	mux.Handle("GET /auth-callback", public(h.AuthCallback))
	mux.Handle("GET /auth/signed-out", http.HandlerFunc(h.SignedOut))

	// Without a session provider nothing can be granted, so protected pages
	// are left unregistered and fall through to the not-found redirect.
	if services.Auth == nil {
		return
	}
	guard := RequireAuthBrowser(GuardConfig{
		Sessions:     services.Auth,
		Routes:       services.Routes,
		Placeholder:  http.HandlerFunc(h.Unavailable),
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	})
	protected := func(next http.HandlerFunc) http.Handler { return csrf(guard(next)) }

	mux.Handle("GET /order-status", protected(h.OrderStatus))
	mux.Handle("GET /user-profile", protected(h.UserProfile))
	mux.Handle("POST /user-profile", protected(h.UserProfileSubmit))
	mux.Handle("GET /manage-restaurant", protected(h.ManageRestaurant))
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter()
	// Serve the request through the mux, capturing status, headers, and body
	h.mux.ServeHTTP(cw, r)

	if cw.status != http.StatusNotFound {
		cw.flushTo(w)
		return
	}
	// For missing static assets, preserve the default file server response
	if strings.HasPrefix(r.URL.Path, "/static/") {
		cw.flushTo(w)
		return
	}
	if h.uiHandlers != nil {
		h.uiHandlers.NotFound(w, r)
		return
	}
	http.NotFound(w, r)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	buf         bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header { return c.header }

func (c *captureWriter) WriteHeader(code int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true
	c.status = code
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.wroteHeader = true
	return c.buf.Write(b)
}

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		slog.Default().Debug("failed to write captured response", "error", err)
	}
}
