package httpx

import (
	"net/http"

	"github.com/narrai/narrai-web/internal/service"
)

// OnboardingComplete handles POST /onboarding/complete.
func (h *UIHandlers) OnboardingComplete(w http.ResponseWriter, r *http.Request) {
	h.dismissOnboarding(w, r, service.DismissComplete)
}

// OnboardingSkip handles POST /onboarding/skip.
func (h *UIHandlers) OnboardingSkip(w http.ResponseWriter, r *http.Request) {
	h.dismissOnboarding(w, r, service.DismissSkip)
}

// dismissOnboarding records the dismissal once and continues to the page the user
// originally asked for.
func (h *UIHandlers) dismissOnboarding(w http.ResponseWriter, r *http.Request, action service.DismissAction) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		Redirect(w, r, loginURL(""))
		return
	}
	next := safeRedirectPath(r.PostFormValue("next"))
	if err := h.Onboarding.Dismiss(r.Context(), session.UserID, action); err != nil {
		h.logger().WarnContext(r.Context(), "onboarding dismissal failed",
			"user_id", session.UserID,
			"action", string(action),
			"error", err,
		)
		Toast(w).Error("We could not save your progress. Please try again.")
		Redirect(w, r, next)
		return
	}
	Redirect(w, r, next)
}
