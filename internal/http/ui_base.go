package httpx

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"net/http"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/domain/model"
	"github.com/target/foodorder-ui/internal/http/ui/viewmodel"
	"github.com/target/foodorder-ui/internal/ports"
	"github.com/target/foodorder-ui/internal/service"
)

// ProfileHooksFactory builds the profile resource hooks for one request.
type ProfileHooksFactory interface {
	Hooks(tokens ports.TokenSource, notify ports.Notifier) *service.ProfileHooks
}

// SessionTokens exposes the per-session operations the UI needs.
type SessionTokens interface {
	TokenSource(sessionID string) ports.TokenSource
	MarkProfileCreated(ctx context.Context, sessionID string) error
}

var (
	_ ProfileHooksFactory = (*service.ProfileService)(nil)
	_ SessionTokens       = (*service.AuthService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T        *TemplateRenderer
	Sessions SessionTokens
	Profiles ProfileHooksFactory
	// CookieDomain scopes the flash cookie.
	CookieDomain string
	IsDev        bool // Development mode flag for enhanced error reporting
	Logger       *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// requestHooks binds the profile hooks to the signed-in session of r and to a
// notifier collecting toasts for this response. The caller must Close the hooks.
func (h *UIHandlers) requestHooks(r *http.Request) (*service.ProfileHooks, *toastNotifier, bool) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.Sessions == nil || h.Profiles == nil {
		return nil, nil, false
	}
	notify := newToastNotifier()
	return h.Profiles.Hooks(h.Sessions.TokenSource(session.ID), notify), notify, true
}

// ensureProfile creates the API user record once per session. Failures are
// reported through the hook's notifier and do not block the page.
func (h *UIHandlers) ensureProfile(ctx context.Context, hooks *service.ProfileHooks, session *domainauth.Session) {
	if session == nil || session.ProfileCreated {
		return
	}
	err := hooks.CreateProfile(ctx, model.CreateUserRequest{Auth0ID: session.UserID, Email: session.Email})
	if err != nil {
		return
	}
	if err := h.Sessions.MarkProfileCreated(ctx, session.ID); err != nil {
		h.logger().WarnContext(ctx, "mark profile created failed", "error", err)
		return
	}
	session.ProfileCreated = true
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			markPageError(data)
		}
	}
	h.respond(w, r, data, nil)
}

// respond delivers collected toasts and renders the page. htmx swaps get them
// as an HX-Trigger event; full renders show them inline together with any
// flash saved by a previous redirect.
func (h *UIHandlers) respond(w http.ResponseWriter, r *http.Request, data map[string]any, notify *toastNotifier) {
	if WantsPartial(r) {
		if notify != nil {
			notify.Flush(w)
		}
		h.renderPage(w, r, data)
		return
	}
	toasts := takeFlash(w, r, h.CookieDomain)
	if notify != nil {
		toasts = append(toasts, notify.Toasts()...)
	}
	if len(toasts) > 0 {
		data["Toasts"] = toasts
	}
	h.renderPage(w, r, data)
}

// renderPage renders a page with HTMX partial support.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, data any) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	// For HTMX requests, render the content plus out-of-band header updates
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})

	layout := extractLayoutInfo(data)

	// Include a <title> element so htmx updates document.title on partial swaps
	if _, err := w.Write([]byte(`<title>` + html.EscapeString(layout.Title) + `</title>`)); err != nil {
		h.logger().Error("failed to write partial document title", "error", err)
		return
	}

	safeTitle := html.EscapeString(layout.PageTitle)
	if _, err := w.Write([]byte(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` + safeTitle + `</h1>`)); err != nil {
		h.logger().Error("failed to write partial header title", "error", err)
		return
	}

	if err := h.T.RenderNamed(w, ContentTemplateFor(layout.CurrentPage), data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

func markPageError(data map[string]any) {
	data["Error"] = true
	if _, ok := data["ErrorMessage"]; ok {
		return
	}
	data["ErrorMessage"] = "An unexpected error occurred. Please try again."
}

func extractLayoutInfo(data any) viewmodel.Layout {
	if provider, ok := data.(viewmodel.LayoutProvider); ok {
		if layout := provider.LayoutData(); layout != nil {
			return *layout
		}
	}
	if layout, ok := data.(viewmodel.Layout); ok {
		return layout
	}

	m, ok := data.(map[string]any)
	if !ok {
		return viewmodel.Layout{}
	}
	layout := viewmodel.Layout{}
	if v, ok := m["Title"].(string); ok {
		layout.Title = v
	}
	if v, ok := m["PageTitle"].(string); ok {
		layout.PageTitle = v
	}
	if v, ok := m["CurrentPage"].(string); ok {
		layout.CurrentPage = v
	}
	return layout
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		if _, writeErr := w.Write([]byte(`<div class="template-error">` +
			`<h2>Template Rendering Error</h2>` +
			`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
			`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
			`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	var buf bytes.Buffer
	errData := map[string]any{
		"Title":   "Something went wrong - " + appName,
		"Code":    "500",
		"Message": "An unexpected error occurred. Please try again.",
	}
	if renderErr := h.T.RenderNamed(&buf, "error-layout", errData); renderErr != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if _, writeErr := buf.WriteTo(w); writeErr != nil {
		h.logger().Error("failed to write error page", "error", writeErr)
	}
}
