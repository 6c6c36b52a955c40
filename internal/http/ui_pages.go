package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	corefuncs "github.com/target/foodorder-ui/internal/http/templates/core"
)

//nolint:gochecknoglobals // static read-only list rendered on the home page
var popularCities = []string{"London", "Manchester", "Birmingham", "Glasgow"}

// Home renders the landing page with the hero banner and city search.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{
			Title:       appName,
			PageTitle:   "Tuck into a takeaway today",
			CurrentPage: PageHome,
			ShowHero:    true,
		},
		Fetch: func(_ context.Context, data map[string]any) error {
			data["PopularCities"] = popularCities
			return nil
		},
	})
}

// SearchSubmit turns the home page search form into a search route.
// GET /search?city=<city>.
func (h *UIHandlers) SearchSubmit(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		navigate(w, r, "/")
		return
	}
	navigate(w, r, "/search/"+url.PathEscape(strings.ToLower(city)))
}

// Search renders the restaurant search view for a city.
// GET /search/{city}.
func (h *UIHandlers) Search(w http.ResponseWriter, r *http.Request) {
	city := corefuncs.TitleCase(r.PathValue("city"))
	h.Page(w, r, PageSpec{
		Meta: PageMeta{
			Title:       "Restaurants in " + city + " - " + appName,
			PageTitle:   "Restaurants in " + city,
			CurrentPage: PageSearch,
		},
		Fetch: func(_ context.Context, data map[string]any) error {
			data["City"] = city
			data["Query"] = strings.TrimSpace(r.URL.Query().Get("searchQuery"))
			return nil
		},
	})
}

// Detail renders a single restaurant view.
// GET /detail/{restaurantId}.
func (h *UIHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("restaurantId")
	h.Page(w, r, PageSpec{
		Meta: PageMeta{
			Title:       "Restaurant - " + appName,
			PageTitle:   "Restaurant",
			CurrentPage: PageDetail,
		},
		Fetch: func(_ context.Context, data map[string]any) error {
			data["RestaurantID"] = id
			return nil
		},
	})
}

// OrderStatus renders the signed-in user's order status view.
// GET /order-status.
func (h *UIHandlers) OrderStatus(w http.ResponseWriter, r *http.Request) {
	h.protectedPage(w, r, PageMeta{
		Title:       "Order Status - " + appName,
		PageTitle:   "Order Status",
		CurrentPage: PageOrderStatus,
	})
}

// ManageRestaurant renders the restaurant management area.
// GET /manage-restaurant.
func (h *UIHandlers) ManageRestaurant(w http.ResponseWriter, r *http.Request) {
	h.protectedPage(w, r, PageMeta{
		Title:       "Manage Restaurant - " + appName,
		PageTitle:   "Manage Restaurant",
		CurrentPage: PageManageRestaurant,
	})
}

// protectedPage renders a guarded view after making sure the API user exists.
func (h *UIHandlers) protectedPage(w http.ResponseWriter, r *http.Request, meta PageMeta) {
	data := basePageData(r, meta)
	hooks, notify, ok := h.requestHooks(r)
	if !ok {
		h.respond(w, r, data, nil)
		return
	}
	defer hooks.Close()
	h.ensureProfile(r.Context(), hooks, GetSessionFromContext(r.Context()))
	h.respond(w, r, data, notify)
}

// AuthCallback is where a login lands when no return path was requested. It
// creates the API user for the new session once, then navigates home.
// GET /auth-callback.
func (h *UIHandlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	hooks, notify, ok := h.requestHooks(r)
	if !ok {
		navigate(w, r, "/")
		return
	}
	defer hooks.Close()
	h.ensureProfile(r.Context(), hooks, GetSessionFromContext(r.Context()))
	saveFlash(w, r, h.CookieDomain, notify.Toasts())
	navigate(w, r, "/")
}

// Unavailable renders the neutral placeholder shown while the session state
// cannot be resolved. It never includes protected content.
func (h *UIHandlers) Unavailable(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{
		Title:       appName,
		PageTitle:   "Just a moment",
		CurrentPage: PageUnavailable,
	})
	// The placeholder must not show a signed-in menu for an unresolved session.
	data["IsAuthenticated"] = false
	delete(data, "User")
	data["RetryPath"] = r.URL.RequestURI()

	name := "layout"
	if WantsPartial(r) {
		name = ContentTemplateFor(PageUnavailable)
	}
	var buf bytes.Buffer
	if err := h.T.RenderNamed(&buf, name, data); err != nil {
		defaultPlaceholder(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Retry-After", "5")
	w.WriteHeader(http.StatusServiceUnavailable)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().Error("failed to write placeholder response", "error", err)
	}
}
