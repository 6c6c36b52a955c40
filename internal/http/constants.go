package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
// These constants ensure consistency across UI handlers and template mapping.
const (
	PageHome             = "home"
	PageSearch           = "search"
	PageDetail           = "detail"
	PageOrderStatus      = "order-status"
	PageUserProfile      = "user-profile"
	PageManageRestaurant = "manage-restaurant"
	PageUnavailable      = "unavailable"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Cookie names shared by the auth handlers and middleware.
const (
	CookieSession           = "session_id"
	CookieOAuthState        = "oauth_state"
	CookieOAuthNonce        = "oauth_nonce"
	CookieOAuthVerifier     = "oauth_verifier"
	CookiePostLoginRedirect = "post_login_redirect"
)

// Auth routes.
const (
	PathLogin     = "/auth/login"
	PathSignedOut = "/auth/signed-out"
)

const appName = "Food Order"

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageHome:             "home-content",
	PageSearch:           "search-content",
	PageDetail:           "detail-content",
	PageOrderStatus:      "order-status-content",
	PageUserProfile:      "user-profile-content",
	PageManageRestaurant: "manage-restaurant-content",
	PageUnavailable:      "unavailable-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "home-content"
}
