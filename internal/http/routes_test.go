package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
	"github.com/target/foodorder-ui/internal/domain/model"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/mocks"
	mockauth "github.com/target/foodorder-ui/internal/mocks/auth"
	"github.com/target/foodorder-ui/internal/ports"
	"github.com/target/foodorder-ui/internal/service"
	"github.com/target/foodorder-ui/internal/testutil"
	"go.uber.org/mock/gomock"
)

const testCSRF = "csrf-test-token"

type routerFixture struct {
	handler http.Handler
	api     *mocks.MockAPIClient
	store   *mockauth.MemorySessionStore
	health  error
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	templates := RequireTemplateFS(t)

	ctrl := gomock.NewController(t)
	f := &routerFixture{
		api:   mocks.NewMockAPIClient(ctrl),
		store: mockauth.NewMemorySessionStore(),
	}
	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Provider: mockauth.NewMockAuthProvider(),
		Sessions: f.store,
	})
	require.NoError(t, err)

	f.handler = NewRouter(RouterServices{
		Auth:       auth,
		Profiles:   service.NewProfileService(service.ProfileServiceOptions{Client: f.api}),
		Health:     PingFunc(func(context.Context) error { return f.health }),
		TemplateFS: templates,
		BaseURL:    "https://food.example.com",
	})
	return f
}

// signIn stores a session whose API user already exists.
func (f *routerFixture) signIn(t *testing.T) domainauth.Session {
	t.Helper()
	sess := testutil.NewSession().WithProfileCreated().Build()
	require.NoError(t, f.store.Save(context.Background(), sess))
	return sess
}

type reqOpts struct {
	session string
	htmx    bool
	accept  string
	form    url.Values
	csrf    bool
	cookies []*http.Cookie
}

func (f *routerFixture) do(t *testing.T, method, target string, o reqOpts) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if o.form != nil {
		if o.csrf {
			o.form.Set("csrf_token", testCSRF)
		}
		body = strings.NewReader(o.form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if o.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if o.csrf {
		req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})
	}
	if o.session != "" {
		req.AddCookie(&http.Cookie{Name: CookieSession, Value: o.session})
	}
	for _, c := range o.cookies {
		req.AddCookie(c)
	}
	if o.htmx {
		req.Header.Set("Hx-Request", "true")
	}
	if o.accept != "" {
		req.Header.Set("Accept", o.accept)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func matchMethod(method string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		req, ok := x.(ports.APIRequest)
		return ok && req.Method == method && req.Path == service.ProfilePath
	})
}

func returnProfile(p model.UserProfile) func(context.Context, ports.TokenSource, ports.APIRequest, any) error {
	return func(_ context.Context, _ ports.TokenSource, _ ports.APIRequest, out any) error {
		*out.(*model.UserProfile) = p
		return nil
	}
}

func TestRouter_HomeAnonymous(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/", reqOpts{})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, ContainsAll(body, []string{
		"<title>Food Order</title>",
		"Tuck into a takeaway today",
		"Food is just a click away!",
		`href="/auth/login"`,
		"Log In",
		"/search/London",
	}), body)
	assert.NotContains(t, body, "Order Status")
	assert.NotContains(t, body, "Log Out")
	assert.Contains(t, cookieMap(w), "csrf_token")
}

func TestRouter_HomeSignedIn(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)

	w := f.do(t, http.MethodGet, "/", reqOpts{session: sess.ID})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, ContainsAll(body, []string{
		"Order Status",
		sess.Email,
		"User Profile",
		"Manage Restaurant",
		"Log Out",
		`action="/auth/logout"`,
	}), body)
	assert.NotContains(t, body, `href="/auth/login"`)
}

func TestRouter_UnknownRouteRedirectsHome(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/no/such/page", reqOpts{accept: "text/html"})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = f.do(t, http.MethodGet, "/no/such/page", reqOpts{htmx: true})
	assert.Equal(t, "/", w.Header().Get("Hx-Redirect"))

	w = f.do(t, http.MethodGet, "/api/nothing", reqOpts{accept: "application/json"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestRouter_Search(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/search?city=New+York", reqOpts{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/search/new%20york", w.Header().Get("Location"))

	w = f.do(t, http.MethodGet, "/search?city=+", reqOpts{})
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = f.do(t, http.MethodGet, "/search/new-york?searchQuery=thai", reqOpts{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Restaurants in New York")
	assert.Contains(t, w.Body.String(), "thai")
}

func TestRouter_DetailPartial(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/detail/64f0c0ffee", reqOpts{htmx: true})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<title>Restaurant - Food Order</title>"), body)
	assert.Contains(t, body, `<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">Restaurant</h1>`)
	assert.Contains(t, body, `data-restaurant-id="64f0c0ffee"`)
	assert.NotContains(t, body, "<html")
	assert.Contains(t, w.Header().Get("Hx-Trigger"), "nav:activate")
}

func TestRouter_ProtectedRedirectsToLogin(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/order-status", "/user-profile", "/manage-restaurant"} {
		w := f.do(t, http.MethodGet, path, reqOpts{accept: "text/html"})
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/auth/login?redirect_uri="+url.QueryEscape(path), w.Header().Get("Location"), path)
	}
}

func TestRouter_ProtectedPlaceholderWhileSessionUnknown(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)
	f.store.GetErr = errors.New("redis: i/o timeout")

	w := f.do(t, http.MethodGet, "/order-status", reqOpts{session: sess.ID, accept: "text/html"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
	body := w.Body.String()
	assert.Contains(t, body, "Checking your session")
	assert.Contains(t, body, `href="/order-status"`)
	assert.NotContains(t, body, "You have no orders")
	assert.NotContains(t, body, sess.Email, "placeholder never shows the signed-in menu")
}

func TestRouter_OrderStatusSignedIn(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)

	w := f.do(t, http.MethodGet, "/order-status", reqOpts{session: sess.ID})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You have no orders in progress.")
}

func TestRouter_ProtectedPageCreatesProfileOnce(t *testing.T) {
	f := newRouterFixture(t)
	sess := testutil.NewSession().Build()
	require.NoError(t, f.store.Save(context.Background(), sess))

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPost), nil).
		DoAndReturn(func(_ context.Context, _ ports.TokenSource, req ports.APIRequest, _ any) error {
			assert.Equal(t, model.CreateUserRequest{Auth0ID: sess.UserID, Email: sess.Email}, req.Body)
			return nil
		}).
		Times(1)

	w := f.do(t, http.MethodGet, "/manage-restaurant", reqOpts{session: sess.ID})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := f.store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, stored.ProfileCreated)

	w = f.do(t, http.MethodGet, "/order-status", reqOpts{session: sess.ID})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UserProfileGet(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)
	profile := testutil.NewProfile()

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodGet), gomock.Any()).
		DoAndReturn(returnProfile(profile))

	w := f.do(t, http.MethodGet, "/user-profile", reqOpts{session: sess.ID})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, ContainsAll(body, []string{
		"User Profile",
		"view and change your profile information here",
		`name="email" value="` + profile.Email + `" disabled`,
		`value="` + profile.Name + `"`,
		`value="` + profile.AddressLine1 + `"`,
		`value="` + profile.City + `"`,
		`value="` + profile.Country + `"`,
		">Submit</button>",
	}), body)
	assert.NotContains(t, body, "field-error")
}

func TestRouter_UserProfileGetFailure(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodGet), gomock.Any()).
		Return(apperrors.RequestFailed(service.OpFetchUser, http.StatusInternalServerError)).
		Times(1)

	w := f.do(t, http.MethodGet, "/user-profile", reqOpts{session: sess.ID})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Unable to load user profile")
	assert.Contains(t, body, `toast toast-error`)
	assert.Contains(t, body, "Failed to fetch user")
	assert.NotContains(t, body, `id="user-profile-form"`)
}

func TestRouter_UserProfileGetJSON(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)
	profile := testutil.NewProfile()

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodGet), gomock.Any()).
		DoAndReturn(returnProfile(profile))

	w := f.do(t, http.MethodGet, "/user-profile", reqOpts{session: sess.ID, accept: "application/json"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"addressLine1":"`+profile.AddressLine1+`"`)
}

func TestRouter_UserProfileSubmitInvalidNeverCallsAPI(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)
	// No Do expectation: any API call fails the test.

	w := f.do(t, http.MethodPost, "/user-profile", reqOpts{
		session: sess.ID,
		htmx:    true,
		csrf:    true,
		form:    url.Values{"name": {"Ann"}, "addressLine1": {""}, "city": {""}, "country": {"UK"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span class="field-error">addressLine1 is required</span>`)
	assert.Contains(t, body, `<span class="field-error">city is required</span>`)
	assert.NotContains(t, body, "name is required")
	assert.Contains(t, body, `value="Ann"`, "draft keeps the user's input")
	assert.NotContains(t, w.Header().Get("Hx-Trigger"), "showToast")
}

func TestRouter_UserProfileSubmitSuccess(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)
	echo := testutil.NewProfile()
	echo.City = "Leeds"

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPut), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ ports.TokenSource, req ports.APIRequest, out any) error {
			assert.Equal(t, model.UpdateUserRequest{
				Name:         echo.Name,
				AddressLine1: echo.AddressLine1,
				City:         "leeds",
				Country:      echo.Country,
			}, req.Body)
			*out.(*model.UserProfile) = echo
			return nil
		}).
		Times(1)

	w := f.do(t, http.MethodPost, "/user-profile", reqOpts{
		session: sess.ID,
		htmx:    true,
		csrf:    true,
		form: url.Values{
			"email":        {"attacker@example.com"},
			"name":         {echo.Name},
			"addressLine1": {echo.AddressLine1},
			"city":         {"leeds"},
			"country":      {echo.Country},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Hx-Trigger"), `"message":"user profile updated!"`)
	assert.Contains(t, w.Header().Get("Hx-Trigger"), `"type":"success"`)
	body := w.Body.String()
	assert.Contains(t, body, `value="Leeds"`, "form resets to the server echo")
	assert.Contains(t, body, `value="`+echo.Email+`"`)
	assert.NotContains(t, body, "attacker@example.com")
}

func TestRouter_UserProfileSubmitFailureKeepsDraft(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPut), gomock.Any()).
		Return(apperrors.RequestFailed(service.OpUpdateUser, http.StatusBadGateway)).
		Times(1)

	w := f.do(t, http.MethodPost, "/user-profile", reqOpts{
		session: sess.ID,
		htmx:    true,
		csrf:    true,
		form:    url.Values{"name": {"Ann"}, "addressLine1": {"1 High St"}, "city": {"York"}, "country": {"UK"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Hx-Trigger"), `"message":"Failed to update user"`)
	assert.Contains(t, w.Header().Get("Hx-Trigger"), `"type":"error"`)
	assert.Contains(t, w.Body.String(), `value="York"`)
}

func TestRouter_UserProfileSubmitJSONValidation(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)

	w := f.do(t, http.MethodPost, "/user-profile", reqOpts{
		session: sess.ID,
		accept:  "application/json",
		csrf:    true,
		form:    url.Values{"name": {""}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"validation_failed","message":"name is required","field":"name"}`, w.Body.String())
}

func TestRouter_UserProfileSubmitRequiresCSRF(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)

	w := f.do(t, http.MethodPost, "/user-profile", reqOpts{
		session: sess.ID,
		form:    url.Values{"name": {"Ann"}},
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_AuthCallbackCreatesProfileAndGoesHome(t *testing.T) {
	f := newRouterFixture(t)
	sess := testutil.NewSession().Build()
	require.NoError(t, f.store.Save(context.Background(), sess))

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPost), nil).
		Return(nil).
		Times(1)

	w := f.do(t, http.MethodGet, "/auth-callback", reqOpts{session: sess.ID})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotContains(t, cookieMap(w), CookieFlash)
}

func TestRouter_AuthCallbackFailureFlashesToast(t *testing.T) {
	f := newRouterFixture(t)
	sess := testutil.NewSession().Build()
	require.NoError(t, f.store.Save(context.Background(), sess))

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPost), nil).
		Return(apperrors.RequestFailed(service.OpCreateUser, http.StatusConflict)).
		Times(1)

	w := f.do(t, http.MethodGet, "/auth-callback", reqOpts{session: sess.ID})
	require.Equal(t, http.StatusSeeOther, w.Code)
	flash := cookieMap(w)[CookieFlash]
	require.NotNil(t, flash)

	stored, err := f.store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, stored.ProfileCreated, "a failed create is not recorded")

	w = f.do(t, http.MethodGet, "/", reqOpts{session: sess.ID, cookies: []*http.Cookie{flash}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<div class="toast toast-error" role="status">Failed to create user</div>`)
	cleared := cookieMap(w)[CookieFlash]
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestRouter_AuthCallbackAnonymousGoesHome(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/auth-callback", reqOpts{})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRouter_Logout(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)

	w := f.do(t, http.MethodPost, "/auth/logout", reqOpts{session: sess.ID, form: url.Values{}})
	assert.Equal(t, http.StatusForbidden, w.Code, "logout requires a CSRF token")
	assert.Equal(t, 1, f.store.Len())

	w = f.do(t, http.MethodPost, "/auth/logout", reqOpts{session: sess.ID, form: url.Values{}, csrf: true})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/signed-out?redirect_uri=%2F", w.Header().Get("Location"))
	assert.Zero(t, f.store.Len())
}

func TestRouter_SignedOut(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/auth/signed-out?redirect_uri=%2Fsearch%2Fleeds", reqOpts{})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You have been signed out")
	assert.Contains(t, w.Body.String(), `href="/auth/login?redirect_uri=%2Fsearch%2Fleeds"`)
}

func TestRouter_Healthz(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/healthz", reqOpts{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(t, http.MethodHead, "/healthz", reqOpts{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	f.health = errors.New("dial tcp: connection refused")
	w = f.do(t, http.MethodGet, "/healthz", reqOpts{})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "session_store_unavailable")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRouter_StaticAssets(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/static/css/styles.css", reqOpts{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	w = f.do(t, http.MethodGet, "/static/missing.js", reqOpts{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UserProfileSubmitStripsMarkup(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.signIn(t)
	echo := testutil.NewProfile()

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPut), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ ports.TokenSource, req ports.APIRequest, out any) error {
			body, ok := req.Body.(model.UpdateUserRequest)
			require.True(t, ok)
			assert.Equal(t, "Ann Smith", body.Name)
			assert.Equal(t, "Fish & Chips Lane", body.AddressLine1)
			*out.(*model.UserProfile) = echo
			return nil
		})

	w := f.do(t, http.MethodPost, "/user-profile", reqOpts{
		session: sess.ID,
		htmx:    true,
		csrf:    true,
		form: url.Values{
			"name":         {"<b>Ann</b> Smith"},
			"addressLine1": {"Fish & Chips Lane"},
			"city":         {echo.City},
			"country":      {echo.Country},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_LoginRateLimited(t *testing.T) {
	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Provider: mockauth.NewMockAuthProvider(),
		Sessions: mockauth.NewMemorySessionStore(),
	})
	require.NoError(t, err)

	h := NewRouter(RouterServices{
		Auth:       auth,
		TemplateFS: RequireTemplateFS(t),
		LoginRate:  RateLimitConfig{PerMinute: 1, Burst: 1},
	})

	login := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
		return w
	}

	assert.NotEqual(t, http.StatusTooManyRequests, login().Code)

	w := login()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRouter_UserProfileSubmitSendsEveryToast(t *testing.T) {
	f := newRouterFixture(t)
	sess := testutil.NewSession().Build()
	require.NoError(t, f.store.Save(context.Background(), sess))
	echo := testutil.NewProfile()

	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPost), nil).
		Return(apperrors.RequestFailed(service.OpCreateUser, http.StatusBadGateway)).
		Times(1)
	f.api.EXPECT().
		Do(gomock.Any(), gomock.Any(), matchMethod(http.MethodPut), gomock.Any()).
		DoAndReturn(returnProfile(echo)).
		Times(1)

	w := f.do(t, http.MethodPost, "/user-profile", reqOpts{
		session: sess.ID,
		htmx:    true,
		csrf:    true,
		form: url.Values{
			"name":         {echo.Name},
			"addressLine1": {echo.AddressLine1},
			"city":         {echo.City},
			"country":      {echo.Country},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	trigger := w.Header().Get("Hx-Trigger")
	assert.Contains(t, trigger, `{"message":"Failed to create user","type":"error"}`)
	assert.Contains(t, trigger, `{"message":"user profile updated!","type":"success"}`)
	assert.Less(t, strings.Index(trigger, "Failed to create user"), strings.Index(trigger, "user profile updated!"))
}
