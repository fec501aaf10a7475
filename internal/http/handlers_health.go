package httpx

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	healthResponse     = `{"status":"ok"}`
	readinessTimeout   = 2 * time.Second
	readinessStatusOK  = "ok"
	readinessStatusBad = "unavailable"
)

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// ReadinessCheck probes one dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// readinessHandler runs every check and reports 503 when any fails.
func readinessHandler(checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				results[c.Name] = readinessStatusBad
				status = http.StatusServiceUnavailable
				continue
			}
			results[c.Name] = readinessStatusOK
		}
		overall := readinessStatusOK
		if status != http.StatusOK {
			overall = readinessStatusBad
		}
		WriteJSON(w, status, map[string]any{"status": overall, "checks": results})
	}
}
