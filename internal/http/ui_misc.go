package httpx

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
)

// SignedOut renders a simple signed-out page with a Log In button.
// GET /auth/signed-out?redirect_uri=<local path>.
func (h *UIHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	redirect := domainauth.SafeReturnPath(r.URL.Query().Get("redirect_uri"))
	if redirect == "" {
		redirect = "/"
	}
	loginURL := PathLogin + "?redirect_uri=" + url.QueryEscape(redirect)
	data := map[string]any{
		"Title":       "Signed out - " + appName,
		"RedirectURI": redirect,
		"LoginURL":    loginURL,
	}
	if h.T == nil {
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return
	}
	// Buffer template to avoid partial writes on error
	var buf bytes.Buffer
	if err := h.T.RenderNamed(&buf, "signed-out-page", data); err != nil {
		h.logger().Error("signed-out render failed", "error", err)
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().Error("failed to write signed-out response", "error", err)
	}
}

// NotFound handles unknown routes. Browsers are sent to the home page and
// API clients get a JSON 404.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		navigate(w, r, "/")
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusNotFound,
		ErrCode: "not_found",
		Err:     errors.New("not found"),
	})
}
