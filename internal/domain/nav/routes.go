package nav

import (
	"fmt"
	"net/url"
	"strings"
)

// Access is the guard predicate a route is annotated with.
type Access int

const (
	// AccessPublic routes are reachable regardless of session state.
	AccessPublic Access = iota
	// AccessAuthenticated routes require a signed-in user.
	AccessAuthenticated
	// AccessAdmin routes require a signed-in admin.
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	case AccessAdmin:
		return "admin"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// ParamKind says where a route's parameter lives in the URL.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamPath
	ParamQuery
)

// Route is one row of the declarative route table.
type Route struct {
	View    View
	Pattern string // net/http ServeMux pattern without method, e.g. "/book/{sessionId}"
	Access  Access
	Title   string
	// Param names the path wildcard or query key carrying Target.Param.
	Param     string
	ParamKind ParamKind
	// Standalone routes render without the authenticated layout chrome.
	Standalone bool
}

// routes is the single source of truth for URL registration and guard annotations.
var routes = []Route{
	{View: ViewHome, Pattern: "/", Access: AccessAuthenticated, Title: "Home"},
	{View: ViewLogin, Pattern: "/login", Access: AccessPublic, Title: "Sign in", Standalone: true},
	{View: ViewRegister, Pattern: "/register", Access: AccessPublic, Title: "Create account", Standalone: true},
	{View: ViewForgotPassword, Pattern: "/forgot-password", Access: AccessPublic, Title: "Forgot password", Standalone: true},
	{
		View: ViewResetPassword, Pattern: "/reset-password", Access: AccessPublic, Title: "Reset password",
		Param: "token", ParamKind: ParamQuery, Standalone: true,
	},
	{
		View: ViewVerifyEmail, Pattern: "/verify", Access: AccessPublic, Title: "Verify email",
		Param: "token", ParamKind: ParamQuery, Standalone: true,
	},
	{View: ViewNewBook, Pattern: "/new", Access: AccessAuthenticated, Title: "New book"},
	{View: ViewLibrary, Pattern: "/library", Access: AccessAuthenticated, Title: "Library"},
	{
		View: ViewBookReader, Pattern: "/book/{sessionId}", Access: AccessAuthenticated, Title: "Reader",
		Param: "sessionId", ParamKind: ParamPath,
	},
	{View: ViewBenchmark, Pattern: "/benchmark", Access: AccessAuthenticated, Title: "Benchmark"},
	{View: ViewAnalytics, Pattern: "/analytics", Access: AccessAdmin, Title: "Analytics"},
	{View: ViewConnections, Pattern: "/connections", Access: AccessAuthenticated, Title: "Connections"},
	{View: ViewPrivacySettings, Pattern: "/settings/privacy", Access: AccessAuthenticated, Title: "Privacy settings"},
	{View: ViewLegalPrivacy, Pattern: "/privacy", Access: AccessPublic, Title: "Privacy policy", Standalone: true},
	{View: ViewLegalCookies, Pattern: "/cookies", Access: AccessPublic, Title: "Cookie policy", Standalone: true},
	{View: ViewLegalTerms, Pattern: "/terms", Access: AccessPublic, Title: "Terms of service", Standalone: true},
}

var routeIndex = func() map[View]Route {
	m := make(map[View]Route, len(routes))
	for _, r := range routes {
		m[r.View] = r
	}
	return m
}()

// Routes returns a copy of the route table in declaration order.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// RouteFor returns the route for v and whether it exists.
func RouteFor(v View) (Route, bool) {
	r, ok := routeIndex[v]
	return r, ok
}

// routeFor is the internal lookup; a missing view is a configuration defect.
func routeFor(v View) Route {
	r, ok := routeIndex[v]
	if !ok {
		panic("nav: no route for view " + string(v)) //nolint:forbidigo // unreachable once Validate passes
	}
	return r
}

// Validate checks that every view has exactly one route and that patterns are unique.
func Validate() error {
	seenView := make(map[View]bool, len(routes))
	seenPattern := make(map[string]View, len(routes))
	for _, r := range routes {
		if seenView[r.View] {
			return fmt.Errorf("duplicate route for view %q", r.View)
		}
		seenView[r.View] = true
		if other, ok := seenPattern[r.Pattern]; ok {
			return fmt.Errorf("pattern %q used by %q and %q", r.Pattern, other, r.View)
		}
		seenPattern[r.Pattern] = r.View
		if r.ParamKind == ParamPath && !strings.Contains(r.Pattern, "{"+r.Param+"}") {
			return fmt.Errorf("route %q: pattern %q lacks wildcard {%s}", r.View, r.Pattern, r.Param)
		}
	}
	for _, v := range AllViews {
		if !seenView[v] {
			return fmt.Errorf("view %q has no route", v)
		}
	}
	return nil
}

func (r Route) url(param string) string {
	switch r.ParamKind {
	case ParamPath:
		return strings.Replace(r.Pattern, "{"+r.Param+"}", url.PathEscape(param), 1)
	case ParamQuery:
		if param == "" {
			return r.Pattern
		}
		return r.Pattern + "?" + url.Values{r.Param: []string{param}}.Encode()
	default:
		return r.Pattern
	}
}
