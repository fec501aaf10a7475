// Package nav holds the navigation model: the closed set of views, the declarative
// route table that maps them to URLs and access requirements, and the route guard.
package nav

// View identifies one top-level page of the application.
type View string

const (
	ViewHome            View = "home"
	ViewLogin           View = "login"
	ViewRegister        View = "register"
	ViewForgotPassword  View = "forgot-password"
	ViewResetPassword   View = "reset-password"
	ViewVerifyEmail     View = "verify-email"
	ViewNewBook         View = "new-book"
	ViewLibrary         View = "library"
	ViewBookReader      View = "book-reader"
	ViewBenchmark       View = "benchmark"
	ViewAnalytics       View = "analytics"
	ViewConnections     View = "connections"
	ViewPrivacySettings View = "privacy-settings"
	ViewLegalPrivacy    View = "legal-privacy"
	ViewLegalCookies    View = "legal-cookies"
	ViewLegalTerms      View = "legal-terms"
)

// AllViews lists every view in navigation order. The route table must cover each one.
var AllViews = []View{
	ViewHome,
	ViewLogin,
	ViewRegister,
	ViewForgotPassword,
	ViewResetPassword,
	ViewVerifyEmail,
	ViewNewBook,
	ViewLibrary,
	ViewBookReader,
	ViewBenchmark,
	ViewAnalytics,
	ViewConnections,
	ViewPrivacySettings,
	ViewLegalPrivacy,
	ViewLegalCookies,
	ViewLegalTerms,
}

// AuthView selects the sub-view shown to unauthenticated visitors.
type AuthView = View

// IsAuthView reports whether v belongs to the unauthenticated branch.
func IsAuthView(v View) bool {
	switch v {
	case ViewLogin, ViewRegister, ViewForgotPassword, ViewResetPassword, ViewVerifyEmail:
		return true
	default:
		return false
	}
}

// Target is an immutable navigation request: a view plus its optional parameter
// (the book session id for the reader, the token for reset and verify flows).
type Target struct {
	View  View
	Param string
}

// To returns a parameterless target.
func To(v View) Target { return Target{View: v} }

// Reader returns the book-reader target for a generation session.
func Reader(sessionID string) Target { return Target{View: ViewBookReader, Param: sessionID} }

// WithToken returns a target carrying a single-use token (reset-password, verify-email).
func WithToken(v View, token string) Target { return Target{View: v, Param: token} }

// Path renders the URL for the target using the route table.
func (t Target) Path() string {
	return routeFor(t.View).url(t.Param)
}
