package httpx

import (
	"html/template"
	"maps"
	"net/http"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/domain/nav"
	"github.com/narrai/narrai-web/internal/http/ui/viewmodel"
)

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage nav.View
	Chrome      bool
}

// metaFor derives page metadata from the route table.
func metaFor(v nav.View) PageMeta {
	r, _ := nav.RouteFor(v)
	return PageMeta{
		Title:       r.Title + " · " + appName,
		PageTitle:   r.Title,
		CurrentPage: v,
		Chrome:      !r.Standalone,
	}
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	st := AuthStateFromContext(r.Context())
	layout := viewmodel.Layout{
		Title:           meta.Title,
		PageTitle:       meta.PageTitle,
		CurrentPage:     string(meta.CurrentPage),
		CSRFToken:       GetCSRFToken(r),
		IsAuthenticated: st.Authenticated,
		IsAdmin:         st.IsAdmin(),
		Chrome:          meta.Chrome,
	}
	if session := GetSessionFromContext(r.Context()); session != nil {
		layout.User = &viewmodel.User{
			FirstName: session.FirstName,
			Email:     session.Email,
			Role:      string(session.Role),
		}
	}
	if meta.Chrome && st.Authenticated {
		layout.Nav = navItems(st, meta.CurrentPage)
	}
	return layout
}

// navItems lists the titled, parameterless routes the guard lets st reach.
func navItems(st domainauth.State, current nav.View) []viewmodel.NavItem {
	var items []viewmodel.NavItem
	for _, route := range nav.Routes() {
		if route.Standalone || route.Param != "" || route.View == nav.ViewHome || route.Title == "" {
			continue
		}
		target := nav.To(route.View)
		if !nav.Evaluate(target, st).Allowed() {
			continue
		}
		items = append(items, viewmodel.NavItem{
			View:   string(route.View),
			Title:  route.Title,
			Href:   target.Path(),
			Active: route.View == current,
		})
	}
	return items
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"IsAdmin":         layout.IsAdmin,
		"Chrome":          layout.Chrome,
		"CSRFToken":       layout.CSRFToken,
		"Nav":             layout.Nav,
		"AppName":         appName,
		"Errors":          map[string]string{},
		"Form":            map[string]string{},
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithSuccess sets a confirmation message shown above the form.
func (b *TemplateDataBuilder) WithSuccess(msg string) *TemplateDataBuilder {
	b.data["SuccessMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// WithForm echoes submitted values back into the form. Passwords are never echoed.
func (b *TemplateDataBuilder) WithForm(values map[string]string) *TemplateDataBuilder {
	b.data["Form"] = echoForm(values)
	return b
}

func echoForm(values map[string]string) map[string]string {
	form := make(map[string]string, len(values))
	maps.Copy(form, values)
	delete(form, "password")
	delete(form, "confirm_password")
	return form
}

// WithContent sets the pre-rendered content area.
func (b *TemplateDataBuilder) WithContent(html template.HTML) *TemplateDataBuilder {
	b.data["Content"] = html
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
