package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/narrai/narrai-web/internal/domain/verification"
	apperrors "github.com/narrai/narrai-web/internal/errors"
)

func mountReady(t *testing.T, app *testApp, token string) string {
	t.Helper()
	app.api.EXPECT().
		CheckVerificationToken(gomock.Any(), token).
		Return(verification.CheckResult{Valid: true, Email: "ada@example.com"}, nil)
	id, snap := app.verify.Mount(context.Background(), token)
	require.Equal(t, verification.StatusReady, snap.Status)
	return id
}

func TestVerifyConfirm_Success(t *testing.T) {
	app := newTestApp(t)
	id := mountReady(t, app, "tok-1")
	app.api.EXPECT().
		VerifyEmail(gomock.Any(), "tok-1").
		Return(verification.ConfirmResult{Message: "Email verified."}, nil)

	rec := app.do(htmxRequest(FormRequest("/verify/confirm", url.Values{"mount_id": {id}}), "content"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-status="success"`)
	assert.Contains(t, body, "Email verified.")
	assert.NotContains(t, body, "Confirm email address")
	assert.Contains(t, rec.Header().Get("Hx-Trigger"), `"type":"success"`)
}

func TestVerifyConfirm_SecondConfirmIsNoop(t *testing.T) {
	app := newTestApp(t)
	id := mountReady(t, app, "tok-1")
	app.api.EXPECT().
		VerifyEmail(gomock.Any(), "tok-1").
		Return(verification.ConfirmResult{}, nil).
		Times(1)

	for range 2 {
		rec := app.do(FormRequest("/verify/confirm", url.Values{"mount_id": {id}}))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestVerifyConfirm_BackendFailure(t *testing.T) {
	app := newTestApp(t)
	id := mountReady(t, app, "tok-1")
	app.api.EXPECT().
		VerifyEmail(gomock.Any(), "tok-1").
		Return(verification.ConfirmResult{}, apperrors.InvalidToken("This link has expired."))

	rec := app.do(FormRequest("/verify/confirm", url.Values{"mount_id": {id}}))

	body := rec.Body.String()
	assert.Contains(t, body, `data-status="error"`)
	assert.Contains(t, body, "This link has expired.")
	assert.Contains(t, rec.Header().Get("Hx-Trigger"), `"type":"error"`)
}

func TestVerifyConfirm_UnknownMount(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(FormRequest("/verify/confirm", url.Values{"mount_id": {"gone"}}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "has expired")
}

func TestVerifyState(t *testing.T) {
	app := newTestApp(t)
	id := mountReady(t, app, "tok-1")

	rec := app.do(httptest.NewRequest(http.MethodGet, "/verify/state?mount="+id, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status     string `json:"status"`
		Email      string `json:"email"`
		CanConfirm bool   `json:"can_confirm"`
		Terminal   bool   `json:"terminal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "ada@example.com", body.Email)
	assert.True(t, body.CanConfirm)
	assert.False(t, body.Terminal)
}

func TestVerifyState_UnknownMount(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/verify/state?mount=missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
