package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/mocks"
	authmocks "github.com/narrai/narrai-web/internal/mocks/auth"
	"github.com/narrai/narrai-web/internal/observability/statsd"
	"github.com/narrai/narrai-web/internal/ports"
	"github.com/narrai/narrai-web/internal/service"
)

// testApp is a router wired to real services over in-memory stores and a mocked backend.
type testApp struct {
	handler    http.Handler
	api        *mocks.MockAccountAPI
	sessions   *authmocks.MemorySessionStore
	onboarding *authmocks.MemoryOnboardingStore
	verify     *service.VerificationService
	metrics    *statsd.Recorder
}

type testAppConfig struct {
	provider    ports.AuthProvider
	readiness   []ReadinessCheck
	compression bool
}

type testAppOption func(*testAppConfig)

func withSSO(p ports.AuthProvider) testAppOption {
	return func(c *testAppConfig) { c.provider = p }
}

func withReadiness(checks ...ReadinessCheck) testAppOption {
	return func(c *testAppConfig) { c.readiness = checks }
}

func withCompression() testAppOption {
	return func(c *testAppConfig) { c.compression = true }
}

func newTestApp(t *testing.T, opts ...testAppOption) *testApp {
	t.Helper()
	var cfg testAppConfig
	for _, o := range opts {
		o(&cfg)
	}

	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl)
	sessions := authmocks.NewMemorySessionStore()
	onboardingStore := authmocks.NewMemoryOnboardingStore()
	rec := &statsd.Recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	auth := service.NewAuthService(service.AuthServiceOptions{
		Provider: cfg.provider,
		Accounts: api,
		Sessions: sessions,
		Roles:    authmocks.StaticRoleMapper{AdminGroup: "admins", UserGroup: "readers"},
		Logger:   logger,
	})
	verify, err := service.NewVerificationService(service.VerificationServiceOptions{
		API:     api,
		Logger:  logger,
		Metrics: rec,
	})
	require.NoError(t, err)

	handler, err := NewRouter(RouterServices{
		Auth:        auth,
		Accounts:    service.NewAccountService(api, logger),
		Onboarding:  service.NewOnboardingService(onboardingStore, logger),
		Verify:      verify,
		Readiness:   cfg.readiness,
		Metrics:     rec,
		Compression: cfg.compression,
		Logger:      logger,
		TemplateFS:  os.DirFS(TemplatePathFromTest),
		StaticFS:    os.DirFS("../../frontend/static"),
	})
	require.NoError(t, err)

	return &testApp{
		handler:    handler,
		api:        api,
		sessions:   sessions,
		onboarding: onboardingStore,
		verify:     verify,
		metrics:    rec,
	}
}

// login stores a live session and marks the onboarding carousel as seen.
func (a *testApp) login(t *testing.T, role domainauth.Role) string {
	t.Helper()
	id := a.loginFresh(t, role)
	require.NoError(t, a.onboarding.MarkCarouselSeen(context.Background(), "user-"+string(role)))
	return id
}

// loginFresh stores a live session for a user who has not seen the carousel yet.
func (a *testApp) loginFresh(t *testing.T, role domainauth.Role) string {
	t.Helper()
	sess := domainauth.Session{
		ID:        "sess-" + string(role),
		UserID:    "user-" + string(role),
		FirstName: "Ada",
		Email:     "ada@example.com",
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, a.sessions.Save(context.Background(), sess))
	return sess.ID
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		WithSessionCookie(req, sessionID)
	}
	return a.do(req)
}

func htmxRequest(req *http.Request, target string) *http.Request {
	req.Header.Set("Hx-Request", "true")
	if target != "" {
		req.Header.Set("Hx-Target", target)
	}
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
