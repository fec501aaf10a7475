package httpx

import "github.com/narrai/narrai-web/internal/domain/nav"

// Cookie names.
const (
	SessionCookieName       = "session_id"
	oauthStateCookie        = "oauth_state"
	oauthNonceCookie        = "oauth_nonce"
	postLoginRedirectCookie = "post_login_redirect"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Top-level template names.
const (
	tmplLayout     = "layout"
	tmplStandalone = "standalone"
	tmplError      = "error-layout"
	tmplFallback   = "render-fallback"
	tmplLoading    = "loading-content"
	tmplOnboarding = "onboarding-content"
)

const (
	errMsgFixBelow = "Please fix the errors below."
	errMsgGeneric  = "Something went wrong. Please try again."
	appName        = "NarrAI"
)

// ContentTemplateFor returns the content template of a view. Every view has one.
func ContentTemplateFor(v nav.View) string {
	return string(v) + "-content"
}
