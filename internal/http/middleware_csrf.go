package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-Csrf-Token"
	csrfFormField  = "csrf_token"
	csrfCookieTTL  = 12 * time.Hour
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	CookieDomain string
	// Exempt lists exact paths that skip validation, such as the OIDC callback.
	Exempt []string
}

// CSRFProtection implements the double-submit cookie pattern. A token cookie is
// issued on first contact and every unsafe request must echo it back either in the
// X-Csrf-Token header (htmx) or the csrf_token form field (plain forms).
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	exempt := make(map[string]bool, len(cfg.Exempt))
	for _, p := range cfg.Exempt {
		exempt[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(csrfCookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				token = rand.Text()
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: false, // read by the htmx config hook
					Secure:   isSecureRequest(r),
					SameSite: http.SameSiteStrictMode,
					MaxAge:   int(csrfCookieTTL.Seconds()),
				})
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

			if unsafeMethod(r.Method) && !exempt[r.URL.Path] && !validCSRFToken(r, token) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// isSecureRequest reports whether the request arrived over TLS, directly or via a proxy.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for proto := range strings.SplitSeq(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

func validCSRFToken(r *http.Request, expected string) bool {
	if expected == "" {
		return false
	}
	got := r.Header.Get(csrfHeaderName)
	if got == "" {
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
			if err := r.ParseForm(); err != nil {
				return false
			}
			got = r.PostFormValue(csrfFormField)
		}
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

type csrfTokenKey struct{}

// GetCSRFToken returns the request's CSRF token for embedding in forms.
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
