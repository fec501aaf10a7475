package httpx

import (
	"context"
	"html"
	"log/slog"
	"maps"
	"net/http"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/domain/dispatch"
	"github.com/narrai/narrai-web/internal/domain/nav"
	"github.com/narrai/narrai-web/internal/domain/verification"
	"github.com/narrai/narrai-web/internal/observability/metrics"
	"github.com/narrai/narrai-web/internal/observability/statsd"
	"github.com/narrai/narrai-web/internal/service"
)

const (
	msgMissingResetToken = "Invalid reset link. No token was provided."
	msgRegistered        = "Account created. Check your email to verify your address, then sign in."
	msgPasswordReset     = "Your password has been reset. You can now sign in."
	msgSignedOut         = "You have been signed out."
)

// AuthService is the part of service.AuthService the HTTP layer uses.
type AuthService interface {
	SSOEnabled() bool
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*domainauth.Session, error)
	PasswordLogin(ctx context.Context, form service.LoginForm) (*domainauth.Session, error)
	ResolveState(ctx context.Context, sessionID string) (domainauth.State, *domainauth.Session)
	Logout(ctx context.Context, sessionID string) error
}

// AccountService is a minimal interface for the account forms.
type AccountService interface {
	Register(ctx context.Context, form service.RegisterForm) (string, error)
	ForgotPassword(ctx context.Context, form service.ForgotPasswordForm) (string, error)
	ResetPassword(ctx context.Context, form service.ResetPasswordForm) (string, error)
}

// OnboardingService is a minimal interface for the carousel.
type OnboardingService interface {
	HasSeenCarousel(ctx context.Context, userID string) bool
	Dismiss(ctx context.Context, userID string, action service.DismissAction) error
}

// VerificationService is a minimal interface for the verify-email view.
type VerificationService interface {
	Mount(ctx context.Context, token string) (string, verification.Snapshot)
	Confirm(ctx context.Context, id string) (verification.Snapshot, error)
	State(id string) (verification.Snapshot, error)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ AuthService         = (*service.AuthService)(nil)
	_ AccountService      = (*service.AccountService)(nil)
	_ OnboardingService   = (*service.OnboardingService)(nil)
	_ VerificationService = (*service.VerificationService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T            *TemplateRenderer
	Boundary     *Boundary
	Auth         AuthService
	Accounts     AccountService
	Onboarding   OnboardingService
	Verify       VerificationService
	Metrics      statsd.Sink
	CookieDomain string
	Logger       *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) cookies() cookieJar { return cookieJar{Domain: h.CookieDomain} }

// Page returns the GET handler for a route. Every navigable view goes through the
// dispatcher except the legal pages, which are served standalone to anyone.
func (h *UIHandlers) Page(route nav.Route) http.HandlerFunc {
	legal := route.Access == nav.AccessPublic && !nav.IsAuthView(route.View)
	return func(w http.ResponseWriter, r *http.Request) {
		target := targetFromRequest(route, r)
		if legal {
			h.renderView(w, r, target, viewOpts{})
			return
		}
		h.dispatch(w, r, target)
	}
}

func targetFromRequest(route nav.Route, r *http.Request) nav.Target {
	switch route.ParamKind {
	case nav.ParamPath:
		return nav.Target{View: route.View, Param: r.PathValue(route.Param)}
	case nav.ParamQuery:
		return nav.Target{View: route.View, Param: r.URL.Query().Get(route.Param)}
	default:
		return nav.To(route.View)
	}
}

func (h *UIHandlers) dispatchState(r *http.Request, target nav.Target) dispatch.State {
	st := AuthStateFromContext(r.Context())
	ds := dispatch.State{Session: st, Target: target, HasSeenCarousel: true}
	if target.View == nav.ViewBookReader {
		ds.ActiveReader = target.Param
	}
	if sess := GetSessionFromContext(r.Context()); st.Authenticated && sess != nil && h.Onboarding != nil {
		ds.HasSeenCarousel = h.Onboarding.HasSeenCarousel(r.Context(), sess.UserID)
	}
	return ds
}

func (h *UIHandlers) dispatch(w http.ResponseWriter, r *http.Request, target nav.Target) {
	ds := h.dispatchState(r, target)
	res := dispatch.Resolve(ds)
	metrics.EmitDispatch(h.Metrics, res.Kind.String(), res.Rule)
	metrics.EmitGuard(h.Metrics, string(target.View), guardDecision(nav.Evaluate(target, ds.Session)))

	switch res.Kind {
	case dispatch.KindRedirect:
		Redirect(w, r, res.Target.Path())
	case dispatch.KindAuth:
		if res.Target.View != target.View {
			Redirect(w, r, loginURL(r.URL.RequestURI()))
			return
		}
		h.renderView(w, r, res.Target, viewOpts{})
	case dispatch.KindLoading:
		h.renderLoading(w, r, target)
	case dispatch.KindOnboarding:
		h.renderOnboarding(w, r, target)
	case dispatch.KindReader:
		h.renderView(w, r, res.Target, viewOpts{})
	default:
		h.renderView(w, r, res.Target, viewOpts{Chrome: res.Chrome})
	}
}

func guardDecision(g nav.GuardResult) string {
	if g.Allowed() {
		return "allow"
	}
	return "redirect_" + string(g.To)
}

// viewOpts tunes one view render.
type viewOpts struct {
	Chrome bool
	Status int
	// Data is merged over the loader output, e.g. field errors after a failed post.
	Data map[string]any
}

// renderView loads the view's data and renders it inside the layout or standalone.
func (h *UIHandlers) renderView(w http.ResponseWriter, r *http.Request, target nav.Target, opts viewOpts) {
	meta := metaFor(target.View)
	meta.Chrome = opts.Chrome
	data := NewTemplateData(r, meta).With("Target", target).Build()
	maps.Copy(data, h.viewData(r, target))
	maps.Copy(data, opts.Data)
	h.renderPage(w, r, target.View, ContentTemplateFor(target.View), data, opts.Status)
}

// viewData is the per-view loader.
func (h *UIHandlers) viewData(r *http.Request, target nav.Target) map[string]any {
	data := map[string]any{}
	q := r.URL.Query()
	switch target.View {
	case nav.ViewLogin:
		data["Next"] = safeRedirectPath(r.FormValue("next"))
		data["SSOEnabled"] = h.Auth != nil && h.Auth.SSOEnabled()
		switch {
		case q.Has("registered"):
			data["SuccessMessage"] = msgRegistered
		case q.Has("reset"):
			data["SuccessMessage"] = msgPasswordReset
		case q.Has("signed_out"):
			data["SuccessMessage"] = msgSignedOut
		}
	case nav.ViewResetPassword:
		data["Token"] = target.Param
		if target.Param == "" {
			data["Error"] = true
			data["ErrorMessage"] = msgMissingResetToken
			data["Disabled"] = true
		}
	case nav.ViewVerifyEmail:
		if h.Verify != nil {
			id, snap := h.Verify.Mount(r.Context(), target.Param)
			data["MountID"] = id
			data["Verification"] = newVerifyView(snap)
		}
	case nav.ViewBookReader:
		data["SessionID"] = target.Param
	}
	return data
}

func (h *UIHandlers) renderLoading(w http.ResponseWriter, r *http.Request, target nav.Target) {
	meta := metaFor(target.View)
	meta.Chrome = false
	data := NewTemplateData(r, meta).With("RetryURL", r.URL.RequestURI()).Build()
	w.Header().Set("Retry-After", "2")
	h.renderPage(w, r, target.View, tmplLoading, data, http.StatusOK)
}

func (h *UIHandlers) renderOnboarding(w http.ResponseWriter, r *http.Request, target nav.Target) {
	meta := PageMeta{Title: "Welcome · " + appName, PageTitle: "Welcome", CurrentPage: target.View}
	data := NewTemplateData(r, meta).With("Next", target.Path()).Build()
	h.renderPage(w, r, target.View, tmplOnboarding, data, http.StatusOK)
}

// renderPage renders the content through the boundary, then wraps it in the page shell.
// htmx requests aimed at the content area receive the fragment only.
func (h *UIHandlers) renderPage(
	w http.ResponseWriter,
	r *http.Request,
	view nav.View,
	contentTmpl string,
	data map[string]any,
	status int,
) {
	if status == 0 {
		status = http.StatusOK
	}
	content, _ := h.Boundary.Content(r.Context(), view, contentTmpl, data)

	if WantsPartial(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		title, _ := data["Title"].(string)
		if _, err := w.Write([]byte("<title>" + html.EscapeString(title) + "</title>" + string(content))); err != nil {
			h.logger().ErrorContext(r.Context(), "failed to write partial", "error", err)
		}
		return
	}

	data["Content"] = content
	shell := tmplStandalone
	if chrome, _ := data["Chrome"].(bool); chrome {
		shell = tmplLayout
	}
	if err := h.T.Render(w, status, shell, data); err != nil {
		h.renderInternalError(w, r)
	}
}

// NotFound renders the 404 page.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderErrorPage(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

func (h *UIHandlers) renderInternalError(w http.ResponseWriter, r *http.Request) {
	h.renderErrorPage(w, r, http.StatusInternalServerError, errMsgGeneric)
}

func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := NewTemplateData(r, PageMeta{Title: http.StatusText(status) + " · " + appName, PageTitle: http.StatusText(status)}).
		With("Status", status).
		WithError(msg).
		Build()
	if h.T == nil || h.T.Render(w, status, tmplError, data) != nil {
		http.Error(w, msg, status)
	}
}

// verifyView is the template shape of a verification snapshot.
type verifyView struct {
	Status     string
	Email      string
	Message    string
	CanConfirm bool
	Busy       bool
	Done       bool
	Failed     bool
}

func newVerifyView(s verification.Snapshot) verifyView {
	return verifyView{
		Status:     string(s.Status),
		Email:      s.Email,
		Message:    s.Message,
		CanConfirm: s.Status == verification.StatusReady,
		Busy:       s.Status == verification.StatusLoading || s.Status == verification.StatusVerifying,
		Done:       s.Status == verification.StatusSuccess || s.Status == verification.StatusAlreadyVerified,
		Failed:     s.Status == verification.StatusError,
	}
}
