package httpx

import (
	"net/http"

	"github.com/narrai/narrai-web/internal/domain/nav"
	"github.com/narrai/narrai-web/internal/domain/verification"
)

const msgMountExpired = "This verification page has expired. Open the link from your email again."

// VerifyConfirm consumes the token of a mounted verification view.
// POST /verify/confirm (form: mount_id).
func (h *UIHandlers) VerifyConfirm(w http.ResponseWriter, r *http.Request) {
	id := r.PostFormValue("mount_id")
	snap, err := h.Verify.Confirm(r.Context(), id)
	status := http.StatusOK
	if err != nil {
		h.logger().InfoContext(r.Context(), "verification confirm on unknown mount", "mount_id", id)
		snap = verification.Snapshot{Status: verification.StatusError, Message: msgMountExpired, Err: err}
		if !IsHTMX(r) {
			status = StatusForError(err)
		}
	}

	switch snap.Status {
	case verification.StatusSuccess:
		Toast(w).Success(snap.Message)
	case verification.StatusError:
		Toast(w).Error(snap.Message)
	}

	data := NewTemplateData(r, metaFor(nav.ViewVerifyEmail)).
		With("Target", nav.To(nav.ViewVerifyEmail)).
		With("MountID", id).
		With("Verification", newVerifyView(snap)).
		Build()
	h.renderPage(w, r, nav.ViewVerifyEmail, ContentTemplateFor(nav.ViewVerifyEmail), data, status)
}

// VerifyState reports a mounted verification view as JSON for client polling.
// GET /verify/state?mount=<id>.
func (h *UIHandlers) VerifyState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Verify.State(r.URL.Query().Get("mount"))
	if err != nil {
		WriteError(w, ErrorParams{Err: err})
		return
	}
	v := newVerifyView(snap)
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":      v.Status,
		"email":       v.Email,
		"message":     v.Message,
		"can_confirm": v.CanConfirm,
		"terminal":    snap.Status.Terminal(),
	})
}
