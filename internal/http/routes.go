package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	narraiweb "github.com/narrai/narrai-web"
	"github.com/narrai/narrai-web/internal/domain/nav"
	"github.com/narrai/narrai-web/internal/observability/statsd"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth       AuthService // Required
	Accounts   AccountService
	Onboarding OnboardingService
	Verify     VerificationService
	Readiness  []ReadinessCheck
	Metrics    statsd.Sink

	CookieDomain     string
	Compression      bool
	CompressionLevel int          // gzip level, default when zero
	IsDev            bool         // read templates and static files from disk
	Logger           *slog.Logger // optional

	// TemplateFS and StaticFS override the embedded filesystems (tests).
	TemplateFS fs.FS
	StaticFS   fs.FS
}

// NewRouter builds the application handler. Page routes come from the navigation
// route table so every view has exactly one URL.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if err := nav.Validate(); err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := services.filesystems()
	if err != nil {
		return nil, err
	}
	resolver, err := NewAssetResolver(staticFS, "manifest.json", logger)
	if err != nil {
		return nil, fmt.Errorf("asset manifest: %w", err)
	}
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Resolver: resolver, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	ui := &UIHandlers{
		T:            renderer,
		Boundary:     NewBoundary(renderer, logger, services.Metrics),
		Auth:         services.Auth,
		Accounts:     services.Accounts,
		Onboarding:   services.Onboarding,
		Verify:       services.Verify,
		Metrics:      services.Metrics,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}
	authHandlers := &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: logger}

	mux := http.NewServeMux()
	withSession := Session(services.Auth)

	registerPageRoutes(mux, ui, withSession)
	registerFormRoutes(mux, ui, withSession)
	registerAuthRoutes(mux, authHandlers, withSession)

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	mux.Handle("GET /readyz", readinessHandler(services.Readiness))
	mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))
	mux.Handle("/", withSession(http.HandlerFunc(ui.NotFound)))

	var handler http.Handler = mux
	handler = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(handler)
	if services.Compression {
		handler = Compression(CompressionConfig{Level: services.CompressionLevel, Logger: logger})(handler)
	}
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

// filesystems picks the template and static filesystems. Dev mode reads from disk.
func (s RouterServices) filesystems() (fs.FS, fs.FS, error) {
	templateFS, staticFS := s.TemplateFS, s.StaticFS
	if templateFS == nil {
		if s.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(narraiweb.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				return nil, nil, fmt.Errorf("template filesystem: %w", err)
			}
			templateFS = sub
		}
	}
	if staticFS == nil {
		if s.IsDev {
			staticFS = os.DirFS("frontend/static")
		} else {
			sub, err := fs.Sub(narraiweb.StaticFS, "frontend/static")
			if err != nil {
				return nil, nil, fmt.Errorf("static filesystem: %w", err)
			}
			staticFS = sub
		}
	}
	return templateFS, staticFS, nil
}

// PagePattern is the ServeMux pattern a route is registered under.
func PagePattern(route nav.Route) string {
	if route.Pattern == "/" {
		return "GET /{$}"
	}
	return "GET " + route.Pattern
}

func registerPageRoutes(mux *http.ServeMux, h *UIHandlers, withSession func(http.Handler) http.Handler) {
	for _, route := range nav.Routes() {
		mux.Handle(PagePattern(route), withSession(h.Page(route)))
	}
}

func registerFormRoutes(mux *http.ServeMux, h *UIHandlers, withSession func(http.Handler) http.Handler) {
	if h.Accounts != nil {
		mux.Handle("POST /register", withSession(http.HandlerFunc(h.RegisterSubmit)))
		mux.Handle("POST /forgot-password", withSession(http.HandlerFunc(h.ForgotPasswordSubmit)))
		mux.Handle("POST /reset-password", withSession(http.HandlerFunc(h.ResetPasswordSubmit)))
	}
	mux.Handle("POST /login", withSession(http.HandlerFunc(h.LoginSubmit)))
	if h.Verify != nil {
		mux.Handle("POST /verify/confirm", withSession(http.HandlerFunc(h.VerifyConfirm)))
		mux.HandleFunc("GET /verify/state", h.VerifyState)
	}
	if h.Onboarding != nil {
		mux.Handle("POST /onboarding/complete", withSession(RequireSession(http.HandlerFunc(h.OnboardingComplete))))
		mux.Handle("POST /onboarding/skip", withSession(RequireSession(http.HandlerFunc(h.OnboardingSkip))))
	}
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, withSession func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /auth/sso", h.SSO)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.Handle("GET /auth/status", withSession(http.HandlerFunc(h.Status)))
}

// staticWithCacheHeaders caches fingerprinted assets for a year and revalidates the rest.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("v") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
