package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandlerGET(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	healthHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandlerHEAD(t *testing.T) {
	req := httptest.NewRequest(http.MethodHead, "/healthz", nil)
	rec := httptest.NewRecorder()

	healthHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len(), "HEAD must not carry a body")
}

func TestReadiness(t *testing.T) {
	ok := ReadinessCheck{Name: "redis", Check: func(context.Context) error { return nil }}
	bad := ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	tests := []struct {
		name   string
		checks []ReadinessCheck
		status int
		want   map[string]string
	}{
		{name: "no checks", status: http.StatusOK, want: map[string]string{}},
		{name: "all healthy", checks: []ReadinessCheck{ok}, status: http.StatusOK, want: map[string]string{"redis": "ok"}},
		{
			name:   "one failing",
			checks: []ReadinessCheck{ok, bad},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"redis": "ok", "postgres": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, withReadiness(tt.checks...))

			rec := app.get("/readyz", "")

			require.Equal(t, tt.status, rec.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Checks)
			assert.NotContains(t, rec.Body.String(), "refused", "check errors stay in the logs")
		})
	}
}

func TestStaticAssetsCacheHeaders(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/static/css/app.css?v=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")

	rec = app.get("/static/css/app.css", "")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}
