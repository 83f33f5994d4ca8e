// Package health reports whether the REST backend and the chat transport are
// usable from this client.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status represents the health status of a dependency.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// CheckFunc is a function that checks a dependency's health.
type CheckFunc func(ctx context.Context) Status

// Result is one named check outcome.
type Result struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Checker runs named checks concurrently.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	last    map[string]Status
	timeout time.Duration
	logger  zerolog.Logger
}

// NewChecker creates a checker whose checks each get a 5s budget.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		last:    make(map[string]Status),
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a named health check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// RunAll executes every check and returns results sorted by name.
func (c *Checker) RunAll(ctx context.Context) []Result {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()

	results := make([]Result, 0, len(checks))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, fn := range checks {
		wg.Add(1)
		go func(n string, f CheckFunc) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			s := f(checkCtx)
			if s != StatusOK {
				c.logger.Warn().Str("check", n).Str("status", string(s)).Msg("health check not ok")
			}
			mu.Lock()
			results = append(results, Result{Name: n, Status: s})
			mu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	last := make(map[string]Status, len(results))
	for _, r := range results {
		last[r.Name] = r.Status
	}
	c.mu.Lock()
	c.last = last
	c.mu.Unlock()
	return results
}

// Last returns the outcome of the previous RunAll for name.
func (c *Checker) Last(name string) (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.last[name]
	return s, ok
}

// Ready reports whether no result is down.
func Ready(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusDown {
			return false
		}
	}
	return true
}

// APICheck probes the REST base URL. Any HTTP answer below 500 means the
// backend is reachable, since unauthenticated probes are expected to be refused.
func APICheck(baseURL string, client *http.Client) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) Status {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return StatusDown
		}
		resp, err := client.Do(req)
		if err != nil {
			return StatusDown
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return StatusDegraded
		}
		return StatusOK
	}
}

// ChatState is satisfied by the chat manager.
type ChatState interface {
	Connected() bool
}

// ChatCheck reports the chat transport. A disconnected transport degrades the
// client without making it unusable.
func ChatCheck(s ChatState) CheckFunc {
	return func(context.Context) Status {
		if s.Connected() {
			return StatusOK
		}
		return StatusDegraded
	}
}

// LivenessHandler returns an HTTP handler for /health (liveness).
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ReadinessHandler returns an HTTP handler for /ready (readiness).
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		results := c.RunAll(r.Context())

		resp := map[string]any{"checks": results}
		if Ready(results) {
			resp["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			resp["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
