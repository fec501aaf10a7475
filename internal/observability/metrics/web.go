// Package metrics emits the front end's StatsD metrics with consistent names and tags.
package metrics

import (
	"time"

	obserrors "github.com/narrai/narrai-web/internal/observability/errors"
	"github.com/narrai/narrai-web/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// EmitGuard counts one route guard decision.
func EmitGuard(sink statsd.Sink, view, decision string) {
	if sink == nil {
		return
	}
	sink.Count("nav.guard", 1, map[string]string{"view": view, "decision": decision})
}

// EmitDispatch counts which top-level branch served a page.
func EmitDispatch(sink statsd.Sink, kind, rule string) {
	if sink == nil {
		return
	}
	sink.Count("nav.dispatch", 1, map[string]string{"kind": kind, "rule": rule})
}

// EmitVerificationTransition counts a verification state change.
func EmitVerificationTransition(sink statsd.Sink, from, to string) {
	if sink == nil {
		return
	}
	sink.Count("verification.transition", 1, map[string]string{"from": from, "to": to})
}

// EmitVerificationMounts records how many verification views are mounted.
func EmitVerificationMounts(sink statsd.Sink, n int) {
	if sink == nil {
		return
	}
	sink.Gauge("verification.mounts", float64(n), nil)
}

// RenderMetric captures one template render.
type RenderMetric struct {
	View     string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitRender emits render counters and timing. Failures carry an error class tag.
func EmitRender(sink statsd.Sink, in RenderMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"view": in.View, "result": in.Result}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("render.view", 1, tags)
	if in.Duration > 0 {
		sink.Timing("render.duration", in.Duration, CloneTags(tags))
	}
}

// EmitBackendCall emits a call to the account backend.
func EmitBackendCall(sink statsd.Sink, op string, d time.Duration, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"op": op, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("backend.call", 1, tags)
	sink.Timing("backend.duration", d, CloneTags(tags))
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
