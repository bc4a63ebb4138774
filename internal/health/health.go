// Package health serves the liveness and readiness probes of the assistant's
// sidecar HTTP server.
//
//   - /healthz: liveness; a process that can answer HTTP is alive, so the
//     endpoint always returns 200 OK.
//   - /readyz: readiness; 200 only while every registered [Checker] passes,
//     503 otherwise.
//
// The readiness body is a JSON object with a top-level "status" of "ok" or
// "fail" and a "checks" map carrying one [CheckResult] per probe, including
// how long the probe took. Checkers for the assistant's own dependencies
// (slot store, price catalog, translation backend) live in this package too,
// so main only wires names together.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"
)

// checkTimeout caps how long a single readiness probe may run. Probes run
// concurrently, so the endpoint answers within one timeout even when several
// dependencies hang.
const checkTimeout = 5 * time.Second

// Checker is a named readiness probe. Check returns nil while the dependency
// is usable and must respect context cancellation.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// CheckResult is one probe outcome in the readiness response.
type CheckResult struct {
	// Status is "ok" or "fail".
	Status string `json:"status"`

	// Error carries the probe failure, empty on success.
	Error string `json:"error,omitempty"`

	// ElapsedMS is how long the probe took in milliseconds. A readiness flap
	// usually announces itself here first, as a probe creeping towards its
	// timeout.
	ElapsedMS float64 `json:"elapsed_ms"`
}

// response is the JSON body of both endpoints.
type response struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Handler answers /healthz and /readyz. The checker list is fixed at
// construction, which makes the handler safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New returns a [Handler] probing the given checkers on every /readyz
// request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: slices.Clone(checkers)}
}

// Healthz always answers 200 OK.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// Readyz probes every checker and answers 200 when all pass, 503 with the
// per-check breakdown otherwise.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks, ready := h.probe(r.Context())

	res := response{Status: "ok", Checks: checks}
	code := http.StatusOK
	if !ready {
		res.Status = "fail"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, res)
}

// probe runs every checker concurrently, each under its own [checkTimeout],
// and reports the outcomes plus whether all of them passed.
func (h *Handler) probe(parent context.Context) (map[string]CheckResult, bool) {
	results := make([]CheckResult, len(h.checkers))

	var wg sync.WaitGroup
	for i, c := range h.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(parent, checkTimeout)
			defer cancel()

			start := time.Now()
			err := c.Check(ctx)
			out := CheckResult{
				Status:    "ok",
				ElapsedMS: float64(time.Since(start).Microseconds()) / 1000,
			}
			if err != nil {
				out.Status = "fail"
				out.Error = err.Error()
			}
			results[i] = out
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(h.checkers))
	ready := true
	for i, c := range h.checkers {
		checks[c.Name] = results[i]
		if results[i].Status != "ok" {
			ready = false
		}
	}
	return checks, ready
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v up front so an encoding failure can still change the
// status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
