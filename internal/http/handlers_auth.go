package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/observability/metrics"
	"github.com/target/foodorder-ui/internal/observability/statsd"
	"github.com/target/foodorder-ui/internal/service"
)

// AuthServiceInterface defines the auth operations the HTTP layer needs.
type AuthServiceInterface interface {
	SessionResolver
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	Logout(ctx context.Context, sessionID, returnTo string) (string, error)
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	// BaseURL is the public origin used to build the IdP logout return URL.
	BaseURL string
	Logger  *slog.Logger
	// Metrics receives auth.login counts; nil disables them.
	Metrics statsd.Sink
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the hosted login flow.
// GET /auth/login?redirect_uri=<optional local path>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	// Without a return path the login lands on the callback page, which
	// creates the API user before going home.
	returnTo := domainauth.SafeReturnPath(r.URL.Query().Get("redirect_uri"))
	target := returnTo
	if target == "" {
		target = domainauth.FallbackPath
	}

	result, err := h.Svc.BeginLogin(r.Context(), target)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start login"),
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{
		State:       result.State,
		Nonce:       result.Nonce,
		Verifier:    result.Verifier,
		RedirectURI: returnTo,
	})
	if returnTo == "" {
		clearCookie(w, r, cookieParams{Name: CookiePostLoginRedirect, Domain: h.CookieDomain})
	}

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the login flow and follows the navigation the auth
// service returns.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if idpErr := q.Get("error"); idpErr != "" {
		h.logger().WarnContext(r.Context(), "identity provider returned an error",
			"error", idpErr, "description", q.Get("error_description"))
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "login_denied",
			Err:     errors.New("login was not completed"),
		})
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	if cookieValue(r, CookieOAuthState) != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonce := cookieValue(r, CookieOAuthNonce)
	if nonce == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:     code,
		State:    state,
		Nonce:    nonce,
		Verifier: cookieValue(r, CookieOAuthVerifier),
		ReturnTo: cookieValue(r, CookiePostLoginRedirect),
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		metrics.LoginEvent(h.Metrics, metrics.OutcomeError)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("unable to complete login"),
		})
		return
	}

	metrics.LoginEvent(h.Metrics, metrics.OutcomeSuccess)
	h.setSessionCookie(w, r, result.Session)
	for _, name := range []string{CookieOAuthState, CookieOAuthNonce, CookieOAuthVerifier, CookiePostLoginRedirect} {
		clearCookie(w, r, cookieParams{Name: name, Domain: h.CookieDomain})
	}

	to := result.Navigate.To
	if result.Navigate.IsZero() {
		to = domainauth.FallbackPath
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// Logout tears down the session and sends the browser through the IdP logout
// endpoint when one is configured, otherwise straight to the signed-out page.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	signedOut := signedOutURL(r)
	returnTo := signedOut
	if h.BaseURL != "" {
		returnTo = strings.TrimRight(h.BaseURL, "/") + signedOut
	}

	logoutURL, err := h.Svc.Logout(r.Context(), cookieValue(r, CookieSession), returnTo)
	if err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	clearCookie(w, r, cookieParams{Name: CookieSession, Domain: h.CookieDomain})

	dest := signedOut
	if logoutURL != "" {
		dest = logoutURL
	}

	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	switch {
	case IsHTMX(r):
		HTMX(w).Redirect(dest)
	case isAJAX:
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": dest,
		})
	default:
		http.Redirect(w, r, dest, http.StatusFound)
	}
}

// signedOutURL builds the local signed-out page URL carrying a safe redirect_uri.
func signedOutURL(r *http.Request) string {
	redirectURI := r.FormValue("redirect_uri")
	redirectURI = domainauth.SafeReturnPath(redirectURI)
	if redirectURI == "" {
		redirectURI = "/"
	}
	u := url.URL{Path: PathSignedOut}
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	return u.String()
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session, err := resolveSession(r, h.Svc)
	if err != nil {
		if cookieValue(r, CookieSession) != "" && errors.Is(err, domainauth.ErrSessionNotFound) {
			clearCookie(w, r, cookieParams{Name: CookieSession, Domain: h.CookieDomain})
		}
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    session.UserID,
			"name":  session.Name,
			"email": session.Email,
		},
		"expires_at": session.ExpiresAt,
	})
}

type oauthCookieParams struct {
	State       string
	Nonce       string
	Verifier    string
	RedirectURI string
}

// setOAuthCookies stores the values the callback needs in short-lived cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	values := []struct{ name, value string }{
		{CookieOAuthState, p.State},
		{CookieOAuthNonce, p.Nonce},
		{CookieOAuthVerifier, p.Verifier},
		{CookiePostLoginRedirect, p.RedirectURI},
	}
	for _, v := range values {
		if v.value == "" {
			continue
		}
		setCookie(w, r, cookieParams{Name: v.name, Value: v.value, Domain: h.CookieDomain, MaxAge: oauthCookieMaxAge})
	}
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	setCookie(w, r, cookieParams{Name: CookieSession, Value: s.ID, Domain: h.CookieDomain, MaxAge: maxAge})
}
