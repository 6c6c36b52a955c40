package httpx

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/foodorder-ui/internal/testutil"
)

func TestTemplateRenderer_ContentTemplatesDefined(t *testing.T) {
	tr := RequireTemplateRenderer(t)

	for page, name := range ContentTemplateMap() {
		t.Run(page, func(t *testing.T) {
			var buf bytes.Buffer
			err := tr.RenderNamed(&buf, name, map[string]any{
				"CurrentPage":  page,
				"RestaurantID": "r-1",
				"City":         "Leeds",
				"RetryPath":    "/",
			})
			require.NoError(t, err)
		})
	}
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	tr := RequireTemplateRenderer(t)

	var buf bytes.Buffer
	err := tr.RenderNamed(&buf, "does-not-exist", nil)

	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestUnavailable_HidesSession(t *testing.T) {
	h := CreateUIHandlersForTest(t)
	sess := testutil.NewSession().Build()

	tests := []struct {
		name     string
		htmx     bool
		wantFull bool
	}{
		{name: "full page", wantFull: true},
		{name: "htmx swap", htmx: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/user-profile?tab=1", nil)
			req = req.WithContext(SetSessionInContext(req.Context(), &sess))
			if tt.htmx {
				req.Header.Set("Hx-Request", "true")
			}
			w := httptest.NewRecorder()

			h.Unavailable(w, req)

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, "5", w.Header().Get("Retry-After"))
			body := w.Body.String()
			assert.Contains(t, body, "Checking your session")
			assert.Contains(t, body, `href="/user-profile?tab=1"`)
			assert.NotContains(t, body, sess.Email)
			assert.Equal(t, tt.wantFull, bytes.Contains(w.Body.Bytes(), []byte("<html")))
		})
	}
}

func TestLogAndRenderTemplateError(t *testing.T) {
	h := CreateUIHandlersForTest(t)
	req := httptest.NewRequest(http.MethodGet, "/search/leeds", nil)

	w := httptest.NewRecorder()
	h.logAndRenderTemplateError(w, req, errors.New(`template: "x" is undefined`), "full page render")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>500</h1>")
	assert.NotContains(t, w.Body.String(), "undefined", "template details stay out of production responses")

	h.IsDev = true
	w = httptest.NewRecorder()
	h.logAndRenderTemplateError(w, req, errors.New(`template: "x" is undefined`), "full page render")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Template Rendering Error")
	assert.Contains(t, w.Body.String(), "/search/leeds")
}

func TestSignedOut_WithoutRenderer(t *testing.T) {
	h := &UIHandlers{}
	w := httptest.NewRecorder()

	h.SignedOut(w, httptest.NewRequest(http.MethodGet, "/auth/signed-out?redirect_uri=https://evil.example", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login?redirect_uri=%2F", w.Header().Get("Location"))
}
