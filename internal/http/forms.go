package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/domain/nav"
	"github.com/narrai/narrai-web/internal/service"
)

// formFlow describes one form post: parse, submit, then either redirect or re-render
// the originating view with errors.
type formFlow[T any] struct {
	Target nav.Target
	Parse  func(r *http.Request) T
	Submit func(ctx context.Context, form T) (string, error)
	// Success runs after a successful submission with the service's message.
	Success func(w http.ResponseWriter, r *http.Request, msg string)
}

func handleForm[T any](h *UIHandlers, w http.ResponseWriter, r *http.Request, f formFlow[T]) {
	if err := r.ParseForm(); err != nil {
		h.renderView(w, r, f.Target, viewOpts{
			Status: http.StatusBadRequest,
			Data:   map[string]any{"Error": true, "ErrorMessage": "The form could not be read."},
		})
		return
	}

	form := f.Parse(r)
	msg, err := f.Submit(r.Context(), form)
	if err == nil {
		f.Success(w, r, msg)
		return
	}

	h.logger().InfoContext(r.Context(), "form submission rejected",
		"view", string(f.Target.View),
		"error", err,
	)
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	RenderError(ErrorOpts{
		W:         w,
		R:         r,
		Err:       err,
		PageMeta:  metaFor(f.Target.View),
		Data:      map[string]any{"Form": echoForm(values)},
		ShowToast: IsHTMX(r),
		Render: func(w http.ResponseWriter, r *http.Request, data map[string]any) {
			h.renderView(w, r, f.Target, viewOpts{Status: FormStatus(r, err), Data: data})
		},
	})
}

// LoginSubmit handles POST /login.
func (h *UIHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	var session *domainauth.Session
	handleForm(h, w, r, formFlow[service.LoginForm]{
		Target: nav.To(nav.ViewLogin),
		Parse: func(r *http.Request) service.LoginForm {
			return service.LoginForm{Email: r.PostForm.Get("email"), Password: r.PostForm.Get("password")}
		},
		Submit: func(ctx context.Context, form service.LoginForm) (string, error) {
			s, err := h.Auth.PasswordLogin(ctx, form)
			session = s
			return "", err
		},
		Success: func(w http.ResponseWriter, r *http.Request, _ string) {
			h.cookies().setSession(w, r, session)
			Redirect(w, r, safeRedirectPath(r.PostForm.Get("next")))
		},
	})
}

// RegisterSubmit handles POST /register.
func (h *UIHandlers) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	handleForm(h, w, r, formFlow[service.RegisterForm]{
		Target: nav.To(nav.ViewRegister),
		Parse: func(r *http.Request) service.RegisterForm {
			f := r.PostForm
			return service.RegisterForm{
				FirstName:       f.Get("first_name"),
				LastName:        f.Get("last_name"),
				Email:           f.Get("email"),
				Password:        f.Get("password"),
				ConfirmPassword: f.Get("confirm_password"),
			}
		},
		Submit: h.Accounts.Register,
		Success: func(w http.ResponseWriter, r *http.Request, msg string) {
			Toast(w).Success(msg)
			Redirect(w, r, "/login?registered=1")
		},
	})
}

// ForgotPasswordSubmit handles POST /forgot-password. The response never reveals
// whether the address is registered.
func (h *UIHandlers) ForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	target := nav.To(nav.ViewForgotPassword)
	handleForm(h, w, r, formFlow[service.ForgotPasswordForm]{
		Target: target,
		Parse: func(r *http.Request) service.ForgotPasswordForm {
			return service.ForgotPasswordForm{Email: r.PostForm.Get("email")}
		},
		Submit: h.Accounts.ForgotPassword,
		Success: func(w http.ResponseWriter, r *http.Request, msg string) {
			Toast(w).Success(msg)
			h.renderView(w, r, target, viewOpts{Data: map[string]any{"SuccessMessage": msg, "Sent": true}})
		},
	})
}

// ResetPasswordSubmit handles POST /reset-password. Length and confirmation are
// checked locally before the backend sees the token.
func (h *UIHandlers) ResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := r.ParseForm(); err == nil && r.PostForm.Get("token") != "" {
		token = r.PostForm.Get("token")
	}
	handleForm(h, w, r, formFlow[service.ResetPasswordForm]{
		Target: nav.WithToken(nav.ViewResetPassword, token),
		Parse: func(r *http.Request) service.ResetPasswordForm {
			return service.ResetPasswordForm{
				Token:           token,
				Password:        r.PostForm.Get("password"),
				ConfirmPassword: r.PostForm.Get("confirm_password"),
			}
		},
		Submit: h.Accounts.ResetPassword,
		Success: func(w http.ResponseWriter, r *http.Request, msg string) {
			Toast(w).Success(msg)
			Redirect(w, r, "/login?reset=1")
		},
	})
}
