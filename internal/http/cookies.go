package httpx

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
)

// oauthCookieTTL bounds the SSO round trip.
const oauthCookieTTL = 10 * time.Minute

// cookieJar writes the application's cookies with consistent attributes.
type cookieJar struct {
	Domain string
}

func (c cookieJar) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// clear expires a cookie, mirroring the attributes used to set it.
func (c cookieJar) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSession writes the session cookie based on the session's expiry.
func (c cookieJar) setSession(w http.ResponseWriter, r *http.Request, s *domainauth.Session) {
	c.set(w, r, SessionCookieName, s.ID, time.Until(s.ExpiresAt))
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return "/"
	}
	return candidate
}

// loginURL returns the login page, carrying next when it is worth returning to.
func loginURL(next string) string {
	next = safeRedirectPath(next)
	if next == "/" || strings.HasPrefix(next, "/login") {
		return "/login"
	}
	return "/login?" + url.Values{"next": []string{next}}.Encode()
}
