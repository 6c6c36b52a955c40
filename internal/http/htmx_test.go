package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWantsPartial(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, WantsPartial(req))

	req.Header.Set("Hx-Request", "true")
	assert.True(t, WantsPartial(req))

	req.Header.Set("Hx-Boosted", "true")
	assert.False(t, WantsPartial(req), "boosted navigations get the full layout")
}

func TestSetHXTrigger_MergesEvents(t *testing.T) {
	w := httptest.NewRecorder()
	SetHXTrigger(w, "nav:activate", map[string]string{"path": "/user-profile"})
	SetHXTrigger(w, "refresh", nil)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("Hx-Trigger")), &got))
	assert.Equal(t, map[string]any{"path": "/user-profile"}, got["nav:activate"])
	assert.Equal(t, true, got["refresh"])
}

func TestHTMXResponse(t *testing.T) {
	w := httptest.NewRecorder()
	HTMX(w).PushURL("/search/leeds").Trigger("showToast", map[string]string{"message": "hi"}).Redirect("/")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/", w.Header().Get("Hx-Redirect"))
	assert.Equal(t, "/search/leeds", w.Header().Get("Hx-Push-Url"))
	assert.Contains(t, w.Header().Get("Hx-Trigger"), "showToast")
}

func TestNavigate(t *testing.T) {
	w := httptest.NewRecorder()
	navigate(w, httptest.NewRequest(http.MethodGet, "/search?city=Leeds", nil), "/search/leeds")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/search/leeds", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/search?city=Leeds", nil)
	req.Header.Set("Hx-Request", "true")
	w = httptest.NewRecorder()
	navigate(w, req, "/search/leeds")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/search/leeds", w.Header().Get("Hx-Redirect"))
}
