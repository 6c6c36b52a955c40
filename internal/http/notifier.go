package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/target/foodorder-ui/internal/ports"
)

// Toast types understood by the client toast script.
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is one transient notification.
type Toast struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// toastNotifier collects notifications raised while handling one request.
// Flush delivers them as an HX-Trigger showToast event; full page renders
// show them inline as flash messages instead.
type toastNotifier struct {
	mu     sync.Mutex
	toasts []Toast
}

var _ ports.Notifier = (*toastNotifier)(nil)

func newToastNotifier() *toastNotifier { return &toastNotifier{} }

func (n *toastNotifier) Success(message string) { n.add(message, ToastSuccess) }

func (n *toastNotifier) Error(message string) { n.add(message, ToastError) }

func (n *toastNotifier) add(message, kind string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, Toast{Message: message, Type: kind})
}

// Toasts returns the collected notifications in order.
func (n *toastNotifier) Toasts() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Toast(nil), n.toasts...)
}

// Flush sends every collected notification to htmx, in order, as a single
// showToast event.
func (n *toastNotifier) Flush(w http.ResponseWriter) {
	triggerToasts(w, n.Toasts())
}

// triggerToasts sends a standardized HX-Trigger payload for toast notifications.
func triggerToasts(w http.ResponseWriter, toasts []Toast) {
	if w == nil || len(toasts) == 0 {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{"toasts": toasts})
}

// CookieFlash carries notifications across a redirect to the next full page render.
const CookieFlash = "flash"

const flashMaxAge = 60

// saveFlash stores toasts for the next page the browser loads.
func saveFlash(w http.ResponseWriter, r *http.Request, domain string, toasts []Toast) {
	if len(toasts) == 0 {
		return
	}
	b, err := json.Marshal(toasts)
	if err != nil {
		return
	}
	setCookie(w, r, cookieParams{
		Name:   CookieFlash,
		Value:  base64.RawURLEncoding.EncodeToString(b),
		Domain: domain,
		MaxAge: flashMaxAge,
	})
}

// takeFlash returns and clears toasts saved by an earlier response.
func takeFlash(w http.ResponseWriter, r *http.Request, domain string) []Toast {
	raw := cookieValue(r, CookieFlash)
	if raw == "" {
		return nil
	}
	clearCookie(w, r, cookieParams{Name: CookieFlash, Domain: domain})
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var toasts []Toast
	if err := json.Unmarshal(b, &toasts); err != nil {
		return nil
	}
	return toasts
}
