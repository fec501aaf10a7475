package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	authmocks "github.com/narrai/narrai-web/internal/mocks/auth"
)

func TestSSO_DisabledFallsBackToLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/auth/sso?next=/library", "")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Flibrary", rec.Header().Get("Location"))
}

func TestSSO_RoundTrip(t *testing.T) {
	provider := authmocks.NewMockAuthProvider()
	provider.DefaultUser.Groups = []string{"admins"}
	app := newTestApp(t, withSSO(provider))

	rec := app.get("/auth/sso?next=/analytics", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://mock-idp/auth", rec.Header().Get("Location"))
	state := findCookie(rec, oauthStateCookie)
	nonce := findCookie(rec, oauthNonceCookie)
	next := findCookie(rec, postLoginRedirectCookie)
	require.NotNil(t, state)
	require.NotNil(t, nonce)
	require.NotNil(t, next)
	assert.Equal(t, "/analytics", next.Value)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=xyz&state="+state.Value, nil)
	req.AddCookie(state)
	req.AddCookie(nonce)
	req.AddCookie(next)
	rec = app.do(req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/analytics", rec.Header().Get("Location"))
	session := findCookie(rec, SessionCookieName)
	require.NotNil(t, session)

	// The new session is an admin and can open the admin view directly.
	require.NoError(t, app.onboarding.MarkCarouselSeen(req.Context(), provider.DefaultUser.UserID))
	rec = app.get("/analytics", session.Value)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSSO_LoginPageShowsButtonWhenEnabled(t *testing.T) {
	app := newTestApp(t, withSSO(authmocks.NewMockAuthProvider()))

	rec := app.get("/login", "")

	assert.Contains(t, rec.Body.String(), "Sign in with SSO")
}

func TestCallback_RejectsStateMismatch(t *testing.T) {
	app := newTestApp(t, withSSO(authmocks.NewMockAuthProvider()))

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=xyz&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-1"})
	req.AddCookie(&http.Cookie{Name: oauthNonceCookie, Value: "nonce-1"})
	rec := app.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_state")
	assert.Equal(t, 0, app.sessions.Len())
}

func TestCallback_MissingParams(t *testing.T) {
	app := newTestApp(t, withSSO(authmocks.NewMockAuthProvider()))

	rec := app.get("/auth/callback?code=xyz", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_params")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	sid := app.login(t, domainauth.RoleUser)

	rec := app.do(WithSessionCookie(FormRequest("/logout", nil), sid))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?signed_out=1", rec.Header().Get("Location"))
	assert.Equal(t, 0, app.sessions.Len())
	cleared := findCookie(rec, SessionCookieName)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	rec = app.get("/library", sid)
	assert.Equal(t, "/login?next=%2Flibrary", rec.Header().Get("Location"))
}

func TestAuthStatus(t *testing.T) {
	app := newTestApp(t)

	t.Run("anonymous", func(t *testing.T) {
		rec := app.get("/auth/status", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["authenticated"])
		assert.Equal(t, false, body["loading"])
	})

	t.Run("signed in", func(t *testing.T) {
		sid := app.login(t, domainauth.RoleAdmin)
		rec := app.get("/auth/status", sid)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Authenticated bool `json:"authenticated"`
			User          struct {
				ID    string `json:"id"`
				Email string `json:"email"`
				Role  string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Authenticated)
		assert.Equal(t, "user-admin", body.User.ID)
		assert.Equal(t, "admin", body.User.Role)
	})
}
