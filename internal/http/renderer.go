package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/narrai/narrai-web/internal/http/assets"
)

// AssetResolver aliases the asset resolver so callers configure it through httpx.
type AssetResolver = assets.Resolver

// NewAssetResolver creates an asset resolver over the static filesystem.
func NewAssetResolver(staticFS fs.FS, manifestPath string, logger *slog.Logger) (*AssetResolver, error) {
	return assets.NewResolver(staticFS, manifestPath, logger)
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t        *template.Template
	resolver *AssetResolver
	logger   *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS          // Filesystem containing templates (required)
	Resolver   *AssetResolver // optional
	Logger     *slog.Logger
}

// NewTemplateRenderer parses every template under TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &TemplateRenderer{resolver: cfg.Resolver, logger: cfg.Logger}

	t, err := template.New("root").Funcs(r.funcs()).ParseFS(cfg.TemplateFS, "*.tmpl", "views/*.tmpl")
	if err != nil {
		cfg.Logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	r.t = t
	return r, nil
}

// Has reports whether a template with the given name is defined.
func (r *TemplateRenderer) Has(name string) bool {
	return r.t.Lookup(name) != nil
}

// Fragment executes a template into memory. The result is embedded by the page templates.
func (r *TemplateRenderer) Fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	// #nosec G203 - produced by html/template, values are already escaped.
	return template.HTML(buf.String()), nil
}

// Render writes a complete response with the given status.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (r *TemplateRenderer) funcs() template.FuncMap {
	return template.FuncMap{
		"asset": r.resolver.Resolve,
		"toJSON": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"year": func() int { return time.Now().Year() },
	}
}
