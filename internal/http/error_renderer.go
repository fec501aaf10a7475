package httpx

import (
	"errors"
	"maps"
	"net/http"

	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/validation"
)

// ErrorOpts contains all options needed to re-render a form after a failed submission.
type ErrorOpts struct {
	W http.ResponseWriter
	R *http.Request
	// Err is the error that occurred (optional when FieldErrors is set)
	Err error
	// FieldErrors contains field-level validation errors (field name → error message)
	FieldErrors map[string]string
	// Render receives the prepared template data.
	Render func(w http.ResponseWriter, r *http.Request, data map[string]any)
	// PageMeta carries the title and navigation state of the form page.
	PageMeta PageMeta
	// Data carries extra template values such as submitted form values.
	Data map[string]any
	// ShowToast also sends the message as an error toast.
	ShowToast bool
}

// RenderError re-renders a form with a general message and per-field errors derived from Err.
func RenderError(opts ErrorOpts) {
	if opts.Render == nil {
		http.Error(opts.W, "misconfigured error renderer", http.StatusInternalServerError)
		return
	}

	fields := make(map[string]string, len(opts.FieldErrors))
	maps.Copy(fields, opts.FieldErrors)
	msg := processError(opts.Err, fields)
	if msg == "" && len(fields) > 0 {
		msg = errMsgFixBelow
	}

	builder := NewTemplateData(opts.R, opts.PageMeta).WithFieldErrors(fields)
	if msg != "" {
		builder.WithError(msg)
	}
	data := builder.Build()
	maps.Copy(data, opts.Data)

	if opts.ShowToast && msg != "" {
		Toast(opts.W).Error(msg)
	}
	opts.Render(opts.W, opts.R, data)
}

// processError converts err into a general message, adding any field errors it carries.
func processError(err error, fields map[string]string) string {
	if err == nil {
		return ""
	}

	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		maps.Copy(fields, fe)
		return errMsgFixBelow
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Field != "" && appErr.Code == apperrors.ErrCodeValidation {
			fields[appErr.Field] = appErr.Message
			return errMsgFixBelow
		}
		if appErr.Message != "" && appErr.Code != apperrors.ErrCodeInternal {
			return appErr.Message
		}
	}
	return errMsgGeneric
}

// FormStatus is the status code for a re-rendered form. Plain form posts keep the
// matching 4xx/5xx status; htmx swaps need a 2xx to be applied.
func FormStatus(r *http.Request, err error) int {
	if IsHTMX(r) {
		return http.StatusOK
	}
	if err == nil {
		return http.StatusUnprocessableEntity
	}
	if status := StatusForError(err); status != http.StatusBadRequest {
		return status
	}
	return http.StatusUnprocessableEntity
}
