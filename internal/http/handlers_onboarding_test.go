package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
)

func TestOnboardingDismiss(t *testing.T) {
	for _, path := range []string{"/onboarding/complete", "/onboarding/skip"} {
		t.Run(path, func(t *testing.T) {
			app := newTestApp(t)
			sid := app.loginFresh(t, domainauth.RoleUser)

			rec := app.do(WithSessionCookie(FormRequest(path, url.Values{"next": {"/library"}}), sid))

			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/library", rec.Header().Get("Location"))
			assert.Equal(t, 1, app.onboarding.MarkCalls("user-user"))

			rec = app.get("/library", sid)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "<h1>Library</h1>")
		})
	}
}

func TestOnboardingDismiss_StoreFailureStillContinues(t *testing.T) {
	app := newTestApp(t)
	sid := app.loginFresh(t, domainauth.RoleUser)
	app.onboarding.Err = errors.New("db down")

	rec := app.do(WithSessionCookie(FormRequest("/onboarding/complete", url.Values{"next": {"/new"}}), sid))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/new", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Hx-Trigger"), `"type":"error"`)
}

func TestOnboardingDismiss_RequiresSession(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(FormRequest("/onboarding/skip", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
