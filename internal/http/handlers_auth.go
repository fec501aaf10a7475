package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/service"
)

// AuthHandlers provides the SSO round trip, logout and the session status endpoint.
type AuthHandlers struct {
	Svc          AuthService
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookies() cookieJar { return cookieJar{Domain: h.CookieDomain} }

// SSO starts single sign-on.
// GET /auth/sso?next=<optional_redirect>.
func (h *AuthHandlers) SSO(w http.ResponseWriter, r *http.Request) {
	next := safeRedirectPath(r.URL.Query().Get("next"))

	result, err := h.Svc.BeginLogin(r.Context(), next)
	if err != nil {
		if apperrors.IsNotFound(err) {
			Redirect(w, r, loginURL(next))
			return
		}
		h.logger().ErrorContext(r.Context(), "sso begin failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "login_failed", Err: err})
		return
	}

	jar := h.cookies()
	jar.set(w, r, oauthStateCookie, result.State, oauthCookieTTL)
	jar.set(w, r, oauthNonceCookie, result.Nonce, oauthCookieTTL)
	jar.set(w, r, postLoginRedirectCookie, next, oauthCookieTTL)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes single sign-on.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_params",
			Err:     errors.New("code and state are required"),
		})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	session, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "sso completion failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "login_completion_failed", Err: err})
		return
	}

	jar := h.cookies()
	jar.setSession(w, r, session)
	jar.clear(w, r, oauthStateCookie)
	jar.clear(w, r, oauthNonceCookie)

	next := "/"
	if c, cookieErr := r.Cookie(postLoginRedirectCookie); cookieErr == nil {
		next = safeRedirectPath(c.Value)
		jar.clear(w, r, postLoginRedirectCookie)
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// Logout deletes the session and returns to the login page.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.cookies().clear(w, r, SessionCookieName)
	Redirect(w, r, "/login?signed_out=1")
}

// Status reports the resolved session for client scripts.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	st := AuthStateFromContext(r.Context())
	session := GetSessionFromContext(r.Context())
	if !st.Authenticated || session == nil {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"loading":       st.Loading,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"loading":       false,
		"user": map[string]any{
			"id":         session.UserID,
			"first_name": session.FirstName,
			"last_name":  session.LastName,
			"email":      session.Email,
			"role":       session.Role,
		},
		"expires_at": session.ExpiresAt,
	})
}
