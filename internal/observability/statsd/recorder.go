package statsd

import (
	"sync"
	"time"
)

// Sample is one metric captured by a Recorder.
type Sample struct {
	Kind  string // count, gauge or timing
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory Sink for tests and local debugging.
// A nil *Recorder discards everything.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Sample{Kind: "count", Name: name, Value: float64(value), Tags: cloneTags(tags)})
}

func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(Sample{Kind: "gauge", Name: name, Value: value, Tags: cloneTags(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Sample{Kind: "timing", Name: name, Value: float64(value), Tags: cloneTags(tags)})
}

func (r *Recorder) add(s Sample) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Total sums the values of every count named name.
func (r *Recorder) Total(name string) int64 {
	var n int64
	for _, s := range r.Samples() {
		if s.Kind == "count" && s.Name == name {
			n += int64(s.Value)
		}
	}
	return n
}
