package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/narrai/narrai-web/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response. A zero Code or ErrCode is derived from Err.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	if p.Code == 0 {
		p.Code = StatusForError(p.Err)
	}
	if p.ErrCode == "" {
		p.ErrCode = string(apperrors.GetCode(p.Err))
		if p.ErrCode == "" {
			p.ErrCode = string(apperrors.ErrCodeInternal)
		}
	}
	fallback := errMsgGeneric
	if p.Err != nil && p.Code < http.StatusInternalServerError {
		fallback = p.Err.Error()
	}
	msg := apperrors.UserMessage(p.Err, fallback)
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": msg})
}

// StatusForError maps an application error onto an HTTP status.
func StatusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeMissingToken:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidToken:
		return http.StatusGone
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
