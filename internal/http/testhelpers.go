package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
)

// testCSRFToken is the double-submit token FormRequest attaches.
const testCSRFToken = "test-csrf-token"

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// ContainsAll checks if a string contains all the given substrings.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// FormRequest builds a form POST carrying a valid CSRF cookie and field.
func FormRequest(target string, values url.Values) *http.Request {
	if values == nil {
		values = url.Values{}
	}
	values.Set(csrfFormField, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRFToken})
	return req
}

// WithSessionCookie attaches a session cookie to req.
func WithSessionCookie(req *http.Request, sessionID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	return req
}
