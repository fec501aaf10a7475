package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// contentTarget is the id of the element page fragments are swapped into.
const contentTarget = "content"

// WantsPartial returns true when the handler should return only the content fragment:
// an htmx request aimed at the content area. Boosted navigation and history restores
// need the whole page.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) &&
		r.Header.Get("Hx-Target") == contentTarget &&
		!strings.EqualFold(r.Header.Get("Hx-History-Restore-Request"), "true")
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXPushURL pushes the given URL into the browser history for the new content.
func SetHXPushURL(w http.ResponseWriter, url string) { w.Header().Set("Hx-Push-Url", url) }

// SetHXTrigger sets the Hx-Trigger response header as {"<event>": <payload>}.
// A nil payload becomes true.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		w.Header().Set("Hx-Trigger", `{"`+event+`":true}`)
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// Redirect sends the browser to url. htmx requests get Hx-Redirect so the whole page
// navigates instead of swapping the response into a fragment.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		SetHXRedirect(w, url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Toast kinds understood by the client script.
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Notifier shows transient toast messages through the showToast client event.
type Notifier struct {
	w http.ResponseWriter
}

// Toast returns a Notifier writing to w.
func Toast(w http.ResponseWriter) Notifier { return Notifier{w: w} }

func (n Notifier) Success(msg string) { triggerToast(n.w, msg, ToastSuccess) }

func (n Notifier) Error(msg string) { triggerToast(n.w, msg, ToastError) }

func triggerToast(w http.ResponseWriter, message, kind string) {
	if w == nil || strings.TrimSpace(message) == "" {
		return
	}
	SetHXTrigger(w, "showToast", map[string]any{"message": message, "type": kind})
}
