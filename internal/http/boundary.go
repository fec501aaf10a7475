package httpx

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/narrai/narrai-web/internal/domain/nav"
	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/observability/metrics"
	"github.com/narrai/narrai-web/internal/observability/statsd"
)

// fallbackPanel is used when even the fallback template fails.
const fallbackPanel = `<section class="render-fallback" role="alert"><p>This page could not be displayed. Please reload.</p></section>`

// Boundary renders a view's content area in isolation. A failing view (template error or
// panic) is replaced by a fallback panel so the surrounding chrome still renders.
type Boundary struct {
	renderer *TemplateRenderer
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// NewBoundary returns a Boundary over renderer.
func NewBoundary(renderer *TemplateRenderer, logger *slog.Logger, sink statsd.Sink) *Boundary {
	if logger == nil {
		logger = slog.Default()
	}
	return &Boundary{renderer: renderer, logger: logger, metrics: sink, now: time.Now}
}

// Content renders tmpl for view. ok is false when the fallback panel was substituted.
func (b *Boundary) Content(ctx context.Context, view nav.View, tmpl string, data any) (html template.HTML, ok bool) {
	start := b.now()
	out, err := b.render(tmpl, data)
	if err == nil {
		metrics.EmitRender(b.metrics, metrics.RenderMetric{
			View:     string(view),
			Result:   metrics.ResultSuccess,
			Duration: b.now().Sub(start),
		})
		return out, true
	}

	err = apperrors.Render(err, string(view))
	b.logger.ErrorContext(ctx, "view render failed",
		slog.String("view", string(view)),
		slog.String("template", tmpl),
		slog.Any("error", err),
	)
	metrics.EmitRender(b.metrics, metrics.RenderMetric{
		View:     string(view),
		Result:   metrics.ResultError,
		Duration: b.now().Sub(start),
		Err:      err,
	})

	fallback, fbErr := b.render(tmplFallback, map[string]any{"View": string(view)})
	if fbErr != nil {
		return fallbackPanel, false
	}
	return fallback, false
}

func (b *Boundary) render(tmpl string, data any) (out template.HTML, err error) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("panic while rendering", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if b.renderer == nil {
		return "", fmt.Errorf("no renderer for %s", tmpl)
	}
	return b.renderer.Fragment(tmpl, data)
}
